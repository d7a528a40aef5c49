package submission

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	GetFunc                         func(ctx context.Context, nonce string) (*Submission, error)
	ClaimFunc                       func(ctx context.Context, s *Submission) (bool, error)
	CompleteFunc                    func(ctx context.Context, nonce, redirectURL string) error
	ReleaseFunc                     func(ctx context.Context, nonce string) error
	ListMarketplacesWithExpiredFunc func(ctx context.Context, before time.Time) ([]string, error)
	DeleteExpiredFunc               func(ctx context.Context, marketplaceID string, before time.Time) (int64, error)
}

func (m *MockRepository) Get(ctx context.Context, nonce string) (*Submission, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, nonce)
	}
	return nil, ErrNotFound
}

func (m *MockRepository) Claim(ctx context.Context, s *Submission) (bool, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, s)
	}
	return true, nil
}

func (m *MockRepository) Complete(ctx context.Context, nonce, redirectURL string) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, nonce, redirectURL)
	}
	return nil
}

func (m *MockRepository) Release(ctx context.Context, nonce string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, nonce)
	}
	return nil
}

func (m *MockRepository) ListMarketplacesWithExpired(ctx context.Context, before time.Time) ([]string, error) {
	if m.ListMarketplacesWithExpiredFunc != nil {
		return m.ListMarketplacesWithExpiredFunc(ctx, before)
	}
	return nil, nil
}

func (m *MockRepository) DeleteExpired(ctx context.Context, marketplaceID string, before time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, marketplaceID, before)
	}
	return 0, nil
}

func TestSubmission_Expired(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := &Submission{ExpiresAt: now}

	if s.Expired(now.Add(-time.Second)) {
		t.Error("Expired() = true before expiry")
	}
	if !s.Expired(now) {
		t.Error("Expired() = false at expiry")
	}
}

func TestSubmission_Pending(t *testing.T) {
	s := &Submission{}
	if !s.Pending() {
		t.Error("Pending() = false without a redirect url")
	}
	s.RedirectURL = "https://checkout.example.com/1"
	if s.Pending() {
		t.Error("Pending() = true with a redirect url")
	}
}

func TestHashText(t *testing.T) {
	if HashText("hola") != HashText("hola") {
		t.Error("HashText() is not deterministic")
	}
	if HashText("hola") == HashText("segundo mensaje") {
		t.Error("HashText() collides for different texts")
	}
	if HashText("") == "" {
		t.Error("HashText(\"\") is empty")
	}
}

func TestService_PruneAll(t *testing.T) {
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	deleted := map[string]int64{"mp1": 2, "mp2": 3}

	repo := &MockRepository{
		ListMarketplacesWithExpiredFunc: func(ctx context.Context, before time.Time) ([]string, error) {
			if !before.Equal(now) {
				t.Errorf("before = %v, want %v", before, now)
			}
			return []string{"mp1", "mp2"}, nil
		},
		DeleteExpiredFunc: func(ctx context.Context, marketplaceID string, before time.Time) (int64, error) {
			return deleted[marketplaceID], nil
		},
	}

	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	total, err := svc.PruneAll(context.Background())
	if err != nil {
		t.Fatalf("PruneAll() failed: %v", err)
	}
	if total != 5 {
		t.Errorf("PruneAll() = %d, want 5", total)
	}
}

func TestService_PruneErrors(t *testing.T) {
	repo := &MockRepository{
		DeleteExpiredFunc: func(ctx context.Context, marketplaceID string, before time.Time) (int64, error) {
			return 0, errors.New("db error")
		},
	}
	svc := NewService(repo)

	if _, err := svc.Prune(context.Background(), ""); err == nil {
		t.Error("Prune() expected error for empty marketplace id, got nil")
	}
	if _, err := svc.Prune(context.Background(), "mp1"); err == nil {
		t.Error("Prune() expected repository error, got nil")
	}
}
