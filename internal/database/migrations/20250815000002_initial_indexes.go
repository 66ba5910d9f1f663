package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Identity lookup indexes
			CREATE INDEX IF NOT EXISTS idx_identities_name_key
			ON identities (name_key, last_seen DESC);

			-- Active warning lookups and escalation counting
			CREATE INDEX IF NOT EXISTS idx_warnings_subject_active
			ON warnings (subject_id, expires_at)
			WHERE active = TRUE;

			-- Warning history pages
			CREATE INDEX IF NOT EXISTS idx_warnings_subject_history
			ON warnings (subject_id, created_at DESC, id DESC);

			-- Expiry sweep scan
			CREATE INDEX IF NOT EXISTS idx_warnings_expiry_sweep
			ON warnings (expires_at ASC)
			WHERE active = TRUE AND expires_at IS NOT NULL;

			-- One ban flagged active per subject; creates supersede in a
			-- transaction, so concurrent creates serialize here
			CREATE UNIQUE INDEX IF NOT EXISTS uq_bans_subject_active
			ON bans (subject_id)
			WHERE active = TRUE;

			-- One ban flagged active per address
			CREATE UNIQUE INDEX IF NOT EXISTS uq_bans_address_active
			ON bans (address)
			WHERE active = TRUE AND address IS NOT NULL;

			-- Ban history pages
			CREATE INDEX IF NOT EXISTS idx_bans_subject_history
			ON bans (subject_id, created_at DESC, id DESC);

			-- Active ban listing pages
			CREATE INDEX IF NOT EXISTS idx_bans_active_listing
			ON bans (created_at DESC, id DESC)
			WHERE active = TRUE;

			-- Expiry sweep scan
			CREATE INDEX IF NOT EXISTS idx_bans_expiry_sweep
			ON bans (expires_at ASC)
			WHERE active = TRUE AND expires_at IS NOT NULL;

			-- Kick history pages and recent-kick counting
			CREATE INDEX IF NOT EXISTS idx_kicks_subject_history
			ON kicks (subject_id, created_at DESC, id DESC);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_identities_name_key;
			DROP INDEX IF EXISTS idx_warnings_subject_active;
			DROP INDEX IF EXISTS idx_warnings_subject_history;
			DROP INDEX IF EXISTS idx_warnings_expiry_sweep;
			DROP INDEX IF EXISTS uq_bans_subject_active;
			DROP INDEX IF EXISTS uq_bans_address_active;
			DROP INDEX IF EXISTS idx_bans_subject_history;
			DROP INDEX IF EXISTS idx_bans_active_listing;
			DROP INDEX IF EXISTS idx_bans_expiry_sweep;
			DROP INDEX IF EXISTS idx_kicks_subject_history;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
