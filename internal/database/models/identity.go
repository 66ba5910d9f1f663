package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/dbretry"
	"github.com/robalyx/aegis/internal/database/types"
)

// IdentityModel handles database operations for player identities.
type IdentityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewIdentity creates a new IdentityModel instance.
func NewIdentity(db *bun.DB, logger *zap.Logger) *IdentityModel {
	return &IdentityModel{
		db:     db,
		logger: logger.Named("db_identity"),
	}
}

// Upsert creates an identity or refreshes its name and last-seen fields.
// Concurrent upserts for the same ID are safe; the last write wins. The
// model is updated in place with the stored row, so first-seen survives.
func (m *IdentityModel) Upsert(ctx context.Context, identity *types.Identity) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(identity).
			On("CONFLICT (id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("name_key = EXCLUDED.name_key").
			Set("last_seen = EXCLUDED.last_seen").
			Set("last_address = COALESCE(EXCLUDED.last_address, identity.last_address)").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert identity: %w", err)
		}

		return nil
	})
}

// GetByID retrieves an identity by its UUID.
func (m *IdentityModel) GetByID(ctx context.Context, id uuid.UUID) (*types.Identity, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Identity, error) {
		var identity types.Identity

		err := m.db.NewSelect().
			Model(&identity).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrIdentityNotFound
			}

			return nil, fmt.Errorf("failed to get identity: %w", err)
		}

		return &identity, nil
	})
}

// GetByNameKey retrieves the identity most recently seen under the given
// normalized name key. Names are reusable, so the latest claimant wins.
func (m *IdentityModel) GetByNameKey(ctx context.Context, nameKey string) (*types.Identity, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Identity, error) {
		var identity types.Identity

		err := m.db.NewSelect().
			Model(&identity).
			Where("name_key = ?", nameKey).
			OrderExpr("last_seen DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrIdentityNotFound
			}

			return nil, fmt.Errorf("failed to get identity by name: %w", err)
		}

		return &identity, nil
	})
}

// TouchLastSeen updates the last-seen timestamp and address of an identity.
func (m *IdentityModel) TouchLastSeen(ctx context.Context, id uuid.UUID, address *string, now time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		query := m.db.NewUpdate().
			Model((*types.Identity)(nil)).
			Set("last_seen = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", id)

		if address != nil {
			query = query.Set("last_address = ?", *address)
		}

		_, err := query.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to touch identity: %w", err)
		}

		return nil
	})
}

// Rename updates the display name and its lookup key.
func (m *IdentityModel) Rename(ctx context.Context, id uuid.UUID, name, nameKey string, now time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := m.db.NewUpdate().
			Model((*types.Identity)(nil)).
			Set("name = ?", name).
			Set("name_key = ?", nameKey).
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to rename identity: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rename result: %w", err)
		}

		if affected == 0 {
			return types.ErrIdentityNotFound
		}

		return nil
	})
}

// Exists checks if an identity row is present.
func (m *IdentityModel) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Identity)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check identity existence: %w", err)
		}

		return exists, nil
	})
}
