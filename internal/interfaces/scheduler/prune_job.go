package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"marketplace/internal/domain/submission"
)

// PruneJob removes the expired ledger entries of one marketplace.
type PruneJob struct {
	marketplaceID string
	service       *submission.Service
}

// NewPruneJob creates a prune job for a marketplace
func NewPruneJob(marketplaceID string, service *submission.Service) *PruneJob {
	return &PruneJob{marketplaceID: marketplaceID, service: service}
}

// Execute runs the prune
func (j *PruneJob) Execute(ctx context.Context) error {
	n, err := j.service.Prune(ctx, j.marketplaceID)
	if err != nil {
		return err
	}
	log.Info().Str("marketplace_id", j.marketplaceID).Int64("removed", n).Msg("pruned expired submissions")
	return nil
}

func (j *PruneJob) Key() string {
	return j.marketplaceID
}

func (j *PruneJob) Description() string {
	return fmt.Sprintf("Prune submissions for %s", j.marketplaceID)
}

// PruneJobProvider returns one PruneJob per marketplace with expired entries.
func PruneJobProvider(service *submission.Service) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		ids, err := service.ExpiredMarketplaces(ctx)
		if err != nil {
			return nil, err
		}

		jobs := make([]Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, NewPruneJob(id, service))
		}
		return jobs, nil
	}
}
