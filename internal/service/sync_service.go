package service

import (
	"context"
	"log"
	"log/slog"

	"github.com/zacmb/contentsched/internal/airtable"
	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/transfer"
)

// SyncResult reports which confirmations reached the record source. Failed
// batches are surfaced, never retried automatically.
type SyncResult struct {
	Succeeded     []models.BatchConfirmation
	FailedBatches []FailedBatch
}

type FailedBatch struct {
	Confirmations []models.BatchConfirmation
	Reason        string
}

type SyncService interface {
	PushConfirmations(ctx context.Context, baseID, tableID string, confirmations []models.BatchConfirmation) *SyncResult
}

type syncService struct {
	client *airtable.Client
}

func NewSyncService(client *airtable.Client) SyncService {
	return &syncService{client: client}
}

// PushConfirmations pushes confirmations in fixed-size batches. Each batch
// is independent: a failed batch is recorded and the remaining batches are
// still attempted. Local commits stay the source of truth either way.
func (s *syncService) PushConfirmations(ctx context.Context, baseID, tableID string, confirmations []models.BatchConfirmation) *SyncResult {
	result := &SyncResult{}

	for start := 0; start < len(confirmations); start += airtable.MaxBatchSize {
		end := start + airtable.MaxBatchSize
		if end > len(confirmations) {
			end = len(confirmations)
		}
		batch := confirmations[start:end]

		updates := make([]transfer.RecordUpdate, 0, len(batch))
		for _, conf := range batch {
			updates = append(updates, transfer.RecordUpdate{
				ID: conf.RemoteID,
				Fields: map[string]interface{}{
					"post_id":        conf.PostID,
					"scheduled_date": conf.ScheduledDate,
				},
			})
		}

		if err := s.client.BatchUpdate(ctx, baseID, tableID, updates); err != nil {
			slog.Info(err.Error())
			result.FailedBatches = append(result.FailedBatches, FailedBatch{
				Confirmations: batch,
				Reason:        err.Error(),
			})
			continue
		}

		log.Printf("Updated batch of %d records", len(batch))
		result.Succeeded = append(result.Succeeded, batch...)
	}

	return result
}
