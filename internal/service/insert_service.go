package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/repository"
	"github.com/zacmb/contentsched/pkg/utils"
)

// Accepted schedule formats, tried in order. The first that parses wins.
var scheduleFormats = []string{
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

const storedTimeFormat = "2006-01-02 15:04"

// ErrInvalidSchedule marks an unparseable schedule date/time. Permanent:
// retrying cannot fix malformed input.
var ErrInvalidSchedule = errors.New("invalid schedule date/time")

type InsertService interface {
	Insert(ctx context.Context, repo repository.ScheduledPostRepository, asset *models.ResolvedAsset, candidate *models.CandidateRecord, decision models.DuplicateDecision, existing *models.ScheduledPost) (string, time.Time, error)
}

type insertService struct {
	translate utils.PathTranslator
}

func NewInsertService(translate utils.PathTranslator) InsertService {
	if translate == nil {
		translate = utils.IdentityTranslator
	}
	return &insertService{translate: translate}
}

// Insert commits a resolved candidate to the account's store. Skip decisions
// return an empty id without touching storage. A replace decision deletes
// the prior row in the same transaction as the insert, so a crash can never
// leave the caption with zero rows.
func (s *insertService) Insert(ctx context.Context, repo repository.ScheduledPostRepository, asset *models.ResolvedAsset, candidate *models.CandidateRecord, decision models.DuplicateDecision, existing *models.ScheduledPost) (string, time.Time, error) {
	if decision == models.DecisionSkip || decision == models.DecisionSkipAll {
		return "", time.Time{}, nil
	}

	scheduledAt, err := ParseSchedule(candidate.ScheduledDateTime())
	if err != nil {
		return "", time.Time{}, err
	}

	post := &models.ScheduledPost{
		PostID:        uuid.NewString(),
		FileLocation:  s.translate(asset.LocalPath),
		Caption:       candidate.Caption,
		PostMusic:     candidate.Song,
		PostType:      candidate.PostType,
		PostLocation:  candidate.PostLocation,
		ScheduledDate: scheduledAt.Format(storedTimeFormat),
		Date:          time.Now().Format(storedTimeFormat),
		IsPublished:   0,
	}

	tx, err := repo.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if decision == models.DecisionReplace && existing != nil {
		if err = repo.Remove(ctx, tx, existing.PostID); err != nil {
			return "", time.Time{}, fmt.Errorf("failed to remove replaced post: %w", err)
		}
	}

	if err = repo.Create(ctx, tx, post); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to insert post: %w", err)
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to commit insert: %w", err)
	}

	return post.PostID, scheduledAt, nil
}

// ParseSchedule parses a schedule string against the accepted formats in
// order.
func ParseSchedule(value string) (time.Time, error) {
	for _, format := range scheduleFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, value)
}
