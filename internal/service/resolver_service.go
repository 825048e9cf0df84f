package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/repository"
)

// ConflictResolver decides what to do with a caption duplicate. The CLI
// wires a terminal prompt; tests and unattended runs supply scripted
// policies.
type ConflictResolver interface {
	Resolve(conflict *models.Conflict) models.DuplicateDecision
}

// SkipAllPolicy skips every duplicate without prompting. Used when no
// operator is attached.
type SkipAllPolicy struct{}

func (SkipAllPolicy) Resolve(*models.Conflict) models.DuplicateDecision {
	return models.DecisionSkip
}

type ResolverService interface {
	Resolve(ctx context.Context, repo repository.ScheduledPostRepository, account string, candidate *models.CandidateRecord) (models.DuplicateDecision, *models.ScheduledPost, error)
	Reset(account string)
}

type resolverService struct {
	resolver ConflictResolver
	skipAll  map[string]bool
}

func NewResolverService(resolver ConflictResolver) ResolverService {
	return &resolverService{
		resolver: resolver,
		skipAll:  make(map[string]bool),
	}
}

// Reset clears the sticky skip-all state before an account's run.
func (s *resolverService) Reset(account string) {
	delete(s.skipAll, s.accountKey(account))
}

// Resolve checks the account's store for an existing post with the same
// caption. Without a match the candidate proceeds as a plain insert. With a
// match the decision comes from the conflict resolver, except that a prior
// skip-all decision short-circuits every later candidate for the account.
func (s *resolverService) Resolve(ctx context.Context, repo repository.ScheduledPostRepository, account string, candidate *models.CandidateRecord) (models.DuplicateDecision, *models.ScheduledPost, error) {
	key := s.accountKey(account)

	if s.skipAll[key] {
		return models.DecisionSkipAll, nil, nil
	}

	existing, err := repo.GetByCaption(ctx, candidate.Caption)
	if err != nil {
		slog.Info(err.Error())
		return "", nil, err
	}
	if existing == nil {
		return models.DecisionInsert, nil, nil
	}

	decision := s.resolver.Resolve(&models.Conflict{
		Account:          account,
		ExistingPostID:   existing.PostID,
		ExistingSchedule: existing.ScheduledDate,
		ExistingFile:     existing.FileLocation,
		Caption:          candidate.Caption,
	})

	if decision == models.DecisionSkipAll {
		s.skipAll[key] = true
	}

	return decision, existing, nil
}

func (s *resolverService) accountKey(account string) string {
	return strings.ToLower(account)
}
