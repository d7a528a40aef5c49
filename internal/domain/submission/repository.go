package submission

import (
	"context"
	"time"
)

// Repository defines the interface for submission ledger access
type Repository interface {
	Get(ctx context.Context, nonce string) (*Submission, error)
	// Claim inserts s as pending. It returns false without error when the
	// nonce is already recorded.
	Claim(ctx context.Context, s *Submission) (bool, error)
	// Complete stores the checkout URL of a claimed submission.
	Complete(ctx context.Context, nonce, redirectURL string) error
	// Release drops a pending claim so the form can be submitted again.
	Release(ctx context.Context, nonce string) error
	ListMarketplacesWithExpired(ctx context.Context, before time.Time) ([]string, error)
	DeleteExpired(ctx context.Context, marketplaceID string, before time.Time) (int64, error)
}
