package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		nonce          TEXT PRIMARY KEY,
		marketplace_id TEXT NOT NULL,
		text_hash      TEXT NOT NULL DEFAULT '',
		redirect_url   TEXT NOT NULL DEFAULT '',
		created_at     BIGINT NOT NULL,
		expires_at     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_marketplace_expires_idx
		ON submissions (marketplace_id, expires_at)`,
}

// EnsureSchema creates the ledger tables when they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
