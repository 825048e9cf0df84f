package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/repository"
)

// RunOptions carries everything one account's pipeline run needs. Base
// paths and stores are injected; nothing is compiled in.
type RunOptions struct {
	Account    string
	BaseID     string
	TableID    string
	OutputDir  string
	Repo       repository.ScheduledPostRepository
	Candidates []*models.CandidateRecord
	// ConfirmRetry is asked once when fetch-stage failures remain after the
	// first pass. nil means retry without asking.
	ConfirmRetry func(failed int) bool
}

type PipelineService interface {
	Run(ctx context.Context, opts RunOptions) *models.RunReport
}

type pipelineService struct {
	fetch    FetchService
	resolver ResolverService
	insert   InsertService
	sync     SyncService
}

func NewPipelineService(fetch FetchService, resolver ResolverService, insert InsertService, sync SyncService) PipelineService {
	return &pipelineService{
		fetch:    fetch,
		resolver: resolver,
		insert:   insert,
		sync:     sync,
	}
}

// Run drives every candidate through
// pending → asset-fetched → resolved → stored → confirmed, capturing
// failures per record. A single bad record never aborts the batch.
func (p *pipelineService) Run(ctx context.Context, opts RunOptions) *models.RunReport {
	report := &models.RunReport{Account: opts.Account}

	records := make([]*models.RecordResult, 0, len(opts.Candidates))
	for i, candidate := range opts.Candidates {
		records = append(records, &models.RecordResult{
			Candidate: candidate,
			Ordinal:   i + 1,
			Stage:     models.StagePending,
		})
	}
	report.Records = records

	p.resolver.Reset(opts.Account)

	// Fetch stage, concurrent.
	p.fetch.MaterializeAll(ctx, opts.Account, opts.OutputDir, records)
	p.retryFetchFailures(ctx, opts, records)

	// Resolution and storage, sequential in candidate order: skip-all and
	// caption matching are order-sensitive.
	var confirmations []models.BatchConfirmation
	byPostID := make(map[string]*models.RecordResult)

	for _, rec := range records {
		if rec.Stage != models.StageFetched {
			continue
		}

		decision, existing, err := p.resolver.Resolve(ctx, opts.Repo, opts.Account, rec.Candidate)
		if err != nil {
			failRecord(rec, models.StageResolved, err)
			continue
		}
		rec.Stage = models.StageResolved

		postID, scheduledAt, err := p.insert.Insert(ctx, opts.Repo, rec.Asset, rec.Candidate, decision, existing)
		if err != nil {
			failRecord(rec, models.StageStored, err)
			if errors.Is(err, ErrInvalidSchedule) {
				rec.Permanent = true
			}
			continue
		}

		if postID == "" {
			rec.Stage = models.StageSkipped
			rec.Reason = fmt.Sprintf("duplicate caption: %s", decision)
			continue
		}

		rec.Stage = models.StageStored
		rec.PostID = postID
		byPostID[postID] = rec

		if rec.Candidate.RemoteID == "" {
			// No remote identifier, nothing to confirm.
			continue
		}
		confirmations = append(confirmations, models.BatchConfirmation{
			RemoteID:      rec.Candidate.RemoteID,
			PostID:        postID,
			ScheduledDate: scheduledAt.Format("2006-01-02T15:04:05"),
		})
	}

	if len(confirmations) > 0 {
		result := p.sync.PushConfirmations(ctx, opts.BaseID, opts.TableID, confirmations)
		for _, conf := range result.Succeeded {
			if rec, ok := byPostID[conf.PostID]; ok {
				rec.Stage = models.StageConfirmed
			}
		}
		report.FailedBatches = len(result.FailedBatches)
		for _, failed := range result.FailedBatches {
			log.Printf("confirmation batch of %d failed for %s: %s", len(failed.Confirmations), opts.Account, failed.Reason)
		}
	}

	return report
}

// retryFetchFailures offers exactly one retry pass over records that failed
// at the fetch stage with a transient error.
func (p *pipelineService) retryFetchFailures(ctx context.Context, opts RunOptions, records []*models.RecordResult) {
	var retryable []*models.RecordResult
	for _, rec := range records {
		if rec.Stage == models.StageFailed && rec.FailedAt == models.StageFetched && !rec.Permanent {
			retryable = append(retryable, rec)
		}
	}
	if len(retryable) == 0 {
		return
	}

	if opts.ConfirmRetry != nil && !opts.ConfirmRetry(len(retryable)) {
		return
	}

	for _, rec := range retryable {
		rec.Stage = models.StagePending
		rec.FailedAt = ""
		rec.Reason = ""
		rec.Retried = true
	}

	log.Printf("Retrying %d failed downloads...", len(retryable))
	p.fetch.MaterializeAll(ctx, opts.Account, opts.OutputDir, retryable)
}
