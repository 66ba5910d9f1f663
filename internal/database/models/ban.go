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

// BanModel handles database operations for bans.
type BanModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBan creates a new BanModel instance.
func NewBan(db *bun.DB, logger *zap.Logger) *BanModel {
	return &BanModel{
		db:     db,
		logger: logger.Named("db_ban"),
	}
}

// Create persists a new ban, superseding any ban still flagged active for
// the same subject inside one transaction. A partial unique index on
// (subject_id) WHERE active backs this up, so concurrent creates serialize
// and the later one wins.
func (m *BanModel) Create(ctx context.Context, ban *types.Ban) error {
	return dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		supersededReason := types.SupersededReason

		_, err := tx.NewUpdate().
			Model((*types.Ban)(nil)).
			Set("active = FALSE").
			Set("removed_by = ?", ban.IssuerID).
			Set("removed_at = ?", ban.CreatedAt).
			Set("removal_reason = ?", supersededReason).
			Where("subject_id = ?", ban.SubjectID).
			Where("active = TRUE").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to supersede existing ban: %w", err)
		}

		if ban.Address != nil {
			_, err = tx.NewUpdate().
				Model((*types.Ban)(nil)).
				Set("active = FALSE").
				Set("removed_by = ?", ban.IssuerID).
				Set("removed_at = ?", ban.CreatedAt).
				Set("removal_reason = ?", supersededReason).
				Where("address = ?", *ban.Address).
				Where("active = TRUE").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to supersede existing address ban: %w", err)
			}
		}

		_, err = tx.NewInsert().
			Model(ban).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create ban: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a ban by its ID.
func (m *BanModel) GetByID(ctx context.Context, id int64) (*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ban, error) {
		var ban types.Ban

		err := m.db.NewSelect().
			Model(&ban).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrBanNotFound
			}

			return nil, fmt.Errorf("failed to get ban: %w", err)
		}

		return &ban, nil
	})
}

// GetActiveBySubject retrieves the ban counting as active for a subject at
// the given instant.
func (m *BanModel) GetActiveBySubject(ctx context.Context, subjectID uuid.UUID, now time.Time) (*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ban, error) {
		var ban types.Ban

		err := m.db.NewSelect().
			Model(&ban).
			Where("subject_id = ?", subjectID).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrNoActiveBan
			}

			return nil, fmt.Errorf("failed to get active ban: %w", err)
		}

		return &ban, nil
	})
}

// GetActiveByAddress retrieves the ban counting as active for an address at
// the given instant.
func (m *BanModel) GetActiveByAddress(ctx context.Context, address string, now time.Time) (*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ban, error) {
		var ban types.Ban

		err := m.db.NewSelect().
			Model(&ban).
			Where("address = ?", address).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrNoActiveBan
			}

			return nil, fmt.Errorf("failed to get active address ban: %w", err)
		}

		return &ban, nil
	})
}

// IsSubjectBanned checks if a subject has a ban counting as active at the
// given instant.
func (m *BanModel) IsSubjectBanned(ctx context.Context, subjectID uuid.UUID, now time.Time) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Ban)(nil)).
			Where("subject_id = ?", subjectID).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			Exists(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check if subject is banned: %w", err)
		}

		return exists, nil
	})
}

// GetActivePage retrieves a page of all bans counting as active at the given
// instant, newest first. The ordering ties on id so pages stay stable.
func (m *BanModel) GetActivePage(ctx context.Context, page types.Page, now time.Time) ([]*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Ban, error) {
		var bans []*types.Ban

		err := m.db.NewSelect().
			Model(&bans).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Offset(page.Offset()).
			Limit(page.Size).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get active bans: %w", err)
		}

		return bans, nil
	})
}

// GetAllActive retrieves every ban counting as active at the given instant.
// Snapshot exports use this; interactive paths should page instead.
func (m *BanModel) GetAllActive(ctx context.Context, now time.Time) ([]*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Ban, error) {
		var bans []*types.Ban

		err := m.db.NewSelect().
			Model(&bans).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get all active bans: %w", err)
		}

		return bans, nil
	})
}

// CountActive counts all bans counting as active at the given instant.
func (m *BanModel) CountActive(ctx context.Context, now time.Time) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Ban)(nil)).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count active bans: %w", err)
		}

		return count, nil
	})
}

// GetHistory retrieves a page of all bans ever issued against a subject,
// newest first.
func (m *BanModel) GetHistory(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Ban, error) {
		var bans []*types.Ban

		err := m.db.NewSelect().
			Model(&bans).
			Where("subject_id = ?", subjectID).
			OrderExpr("created_at DESC, id DESC").
			Offset(page.Offset()).
			Limit(page.Size).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get ban history: %w", err)
		}

		return bans, nil
	})
}

// Deactivate clears the active flag of a ban and records who removed it.
// Returns false without error when the ban was already inactive.
func (m *BanModel) Deactivate(
	ctx context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Ban)(nil)).
			Set("active = FALSE").
			Set("removed_by = ?", removedBy).
			Set("removed_at = ?", now).
			Set("removal_reason = ?", reason).
			Where("id = ?", id).
			Where("active = TRUE").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate ban: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to check deactivation result: %w", err)
		}

		return affected > 0, nil
	})
}

// GetExpiredActive retrieves bans still flagged active whose expiry has
// passed, oldest expiry first, up to limit records.
func (m *BanModel) GetExpiredActive(ctx context.Context, now time.Time, limit int) ([]*types.Ban, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Ban, error) {
		var bans []*types.Ban

		err := m.db.NewSelect().
			Model(&bans).
			Where("active = TRUE").
			Where("expires_at IS NOT NULL").
			Where("expires_at <= ?", now).
			OrderExpr("expires_at ASC, id ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get expired bans: %w", err)
		}

		return bans, nil
	})
}

// Exists checks if a ban row is present regardless of its active flag.
func (m *BanModel) Exists(ctx context.Context, id int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Ban)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check ban existence: %w", err)
		}

		return exists, nil
	})
}
