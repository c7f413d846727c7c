package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tax_reports (
		id                 UUID PRIMARY KEY,
		wallet_fingerprint TEXT        NOT NULL,
		wallet_encrypted   TEXT        NOT NULL,
		short_term_rate    NUMERIC     NOT NULL,
		long_term_rate     NUMERIC     NOT NULL,
		total_profit       NUMERIC     NOT NULL,
		total_tax          NUMERIC     NOT NULL,
		processed_count    INTEGER     NOT NULL,
		skipped_count      INTEGER     NOT NULL,
		summary            JSONB       NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tax_reports_wallet_created
		ON tax_reports (wallet_fingerprint, created_at DESC)`,
}

// Migrate creates the report tables if they do not exist. All statements run in one transaction.
func Migrate(ctx context.Context, pool Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
