package repository

import (
	"context"
	"fmt"
)

// schema is applied on start-up; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		referred_by   TEXT,
		form_data     JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS accounts_username_lower_idx ON accounts (LOWER(username))`,
	// referred_id is a weak reference and deliberately has no foreign key.
	`CREATE TABLE IF NOT EXISTS referrals (
		seq         BIGSERIAL NOT NULL,
		referrer_id UUID NOT NULL REFERENCES accounts (id),
		referred_id UUID NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'filled')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (referrer_id, referred_id)
	)`,
	`CREATE INDEX IF NOT EXISTS referrals_referrer_seq_idx ON referrals (referrer_id, seq)`,
}

func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	for i, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	return nil
}
