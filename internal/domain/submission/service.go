package submission

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service prunes expired ledger entries
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new submission ledger service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ExpiredMarketplaces lists marketplaces holding at least one expired entry.
func (s *Service) ExpiredMarketplaces(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListMarketplacesWithExpired(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired submissions: %w", err)
	}
	return ids, nil
}

// Prune removes the expired entries of one marketplace.
func (s *Service) Prune(ctx context.Context, marketplaceID string) (int64, error) {
	if marketplaceID == "" {
		return 0, errors.New("marketplace id is required")
	}
	n, err := s.repo.DeleteExpired(ctx, marketplaceID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune submissions for %s: %w", marketplaceID, err)
	}
	return n, nil
}

// PruneAll removes every expired entry and returns the number removed.
func (s *Service) PruneAll(ctx context.Context) (int64, error) {
	ids, err := s.ExpiredMarketplaces(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, id := range ids {
		n, err := s.Prune(ctx, id)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
