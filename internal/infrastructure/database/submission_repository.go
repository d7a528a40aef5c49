package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/domain/submission"
)

type SubmissionRepository struct {
	db *DB
}

var _ submission.Repository = (*SubmissionRepository)(nil)

func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Get(ctx context.Context, nonce string) (*submission.Submission, error) {
	query := `
		SELECT nonce, marketplace_id, text_hash, redirect_url, created_at, expires_at
		FROM submissions
		WHERE nonce = ?
	`

	var (
		s                    submission.Submission
		createdAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, nonce).Scan(
		&s.Nonce, &s.MarketplaceID, &s.TextHash, &s.RedirectURL, &createdAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, submission.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	s.CreatedAt = fromMillis(createdAt)
	s.ExpiresAt = fromMillis(expiresAt)
	return &s, nil
}

// Claim inserts a pending record. The primary key makes exactly one of
// several concurrent claims of a nonce succeed.
func (r *SubmissionRepository) Claim(ctx context.Context, s *submission.Submission) (bool, error) {
	query := `
		INSERT INTO submissions (nonce, marketplace_id, text_hash, redirect_url, created_at, expires_at)
		VALUES (?, ?, ?, '', ?, ?)
		ON CONFLICT (nonce) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		s.Nonce, s.MarketplaceID, s.TextHash,
		s.CreatedAt.UnixMilli(), s.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim submission: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check submission claim: %w", err)
	}
	return n == 1, nil
}

// Complete sets the checkout URL of a pending record. A completed record
// keeps its original URL.
func (r *SubmissionRepository) Complete(ctx context.Context, nonce, redirectURL string) error {
	query := `
		UPDATE submissions
		SET redirect_url = ?
		WHERE nonce = ? AND redirect_url = ''
	`

	result, err := r.db.ExecContext(ctx, query, redirectURL, nonce)
	if err != nil {
		return fmt.Errorf("failed to complete submission: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check submission update: %w", err)
	}
	if n == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (r *SubmissionRepository) Release(ctx context.Context, nonce string) error {
	query := `
		DELETE FROM submissions
		WHERE nonce = ? AND redirect_url = ''
	`

	if _, err := r.db.ExecContext(ctx, query, nonce); err != nil {
		return fmt.Errorf("failed to release submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) ListMarketplacesWithExpired(ctx context.Context, before time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT marketplace_id
		FROM submissions
		WHERE expires_at <= ?
		ORDER BY marketplace_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired submissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan marketplace id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired submissions: %w", err)
	}

	return ids, nil
}

func (r *SubmissionRepository) DeleteExpired(ctx context.Context, marketplaceID string, before time.Time) (int64, error) {
	query := `
		DELETE FROM submissions
		WHERE marketplace_id = ? AND expires_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query, marketplaceID, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired submissions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted submissions: %w", err)
	}
	return n, nil
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
