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

// WarningModel handles database operations for warnings.
type WarningModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewWarning creates a new WarningModel instance.
func NewWarning(db *bun.DB, logger *zap.Logger) *WarningModel {
	return &WarningModel{
		db:     db,
		logger: logger.Named("db_warning"),
	}
}

// Create persists a new warning and fills in its generated ID.
func (m *WarningModel) Create(ctx context.Context, warning *types.Warning) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(warning).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create warning: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a warning by its ID.
func (m *WarningModel) GetByID(ctx context.Context, id int64) (*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Warning, error) {
		var warning types.Warning

		err := m.db.NewSelect().
			Model(&warning).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrWarningNotFound
			}

			return nil, fmt.Errorf("failed to get warning: %w", err)
		}

		return &warning, nil
	})
}

// GetActiveBySubject retrieves the warnings counting as active for a subject
// at the given instant, newest first.
func (m *WarningModel) GetActiveBySubject(
	ctx context.Context, subjectID uuid.UUID, now time.Time,
) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("subject_id = ?", subjectID).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get active warnings: %w", err)
		}

		return warnings, nil
	})
}

// GetAllActive retrieves every warning counting as active at the given
// instant. Snapshot exports use this; interactive paths should page instead.
func (m *WarningModel) GetAllActive(ctx context.Context, now time.Time) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			OrderExpr("created_at DESC, id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get all active warnings: %w", err)
		}

		return warnings, nil
	})
}

// CountActiveBySubject counts the warnings counting as active for a subject
// at the given instant.
func (m *WarningModel) CountActiveBySubject(
	ctx context.Context, subjectID uuid.UUID, now time.Time,
) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Warning)(nil)).
			Where("subject_id = ?", subjectID).
			Where("active = TRUE").
			Where("expires_at IS NULL OR expires_at > ?", now).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count active warnings: %w", err)
		}

		return count, nil
	})
}

// GetHistory retrieves a page of all warnings ever issued against a subject,
// newest first. The ordering ties on id so pages stay stable.
func (m *WarningModel) GetHistory(
	ctx context.Context, subjectID uuid.UUID, page types.Page,
) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("subject_id = ?", subjectID).
			OrderExpr("created_at DESC, id DESC").
			Offset(page.Offset()).
			Limit(page.Size).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get warning history: %w", err)
		}

		return warnings, nil
	})
}

// Deactivate clears the active flag of a warning and records who removed it.
// Returns false without error when the warning was already inactive.
func (m *WarningModel) Deactivate(
	ctx context.Context, id int64, removedBy *uuid.UUID, reason *string, now time.Time,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Warning)(nil)).
			Set("active = FALSE").
			Set("removed_by = ?", removedBy).
			Set("removed_at = ?", now).
			Set("removal_reason = ?", reason).
			Where("id = ?", id).
			Where("active = TRUE").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate warning: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to check deactivation result: %w", err)
		}

		return affected > 0, nil
	})
}

// DeactivateAllBySubject clears every active warning of a subject in one
// statement and returns how many records changed.
func (m *WarningModel) DeactivateAllBySubject(
	ctx context.Context, subjectID uuid.UUID, removedBy *uuid.UUID, reason *string, now time.Time,
) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Warning)(nil)).
			Set("active = FALSE").
			Set("removed_by = ?", removedBy).
			Set("removed_at = ?", now).
			Set("removal_reason = ?", reason).
			Where("subject_id = ?", subjectID).
			Where("active = TRUE").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to clear warnings: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check clear result: %w", err)
		}

		return affected, nil
	})
}

// GetExpiredActive retrieves warnings still flagged active whose expiry has
// passed, oldest expiry first, up to limit records.
func (m *WarningModel) GetExpiredActive(ctx context.Context, now time.Time, limit int) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("active = TRUE").
			Where("expires_at IS NOT NULL").
			Where("expires_at <= ?", now).
			OrderExpr("expires_at ASC, id ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get expired warnings: %w", err)
		}

		return warnings, nil
	})
}

// Exists checks if a warning row is present regardless of its active flag.
func (m *WarningModel) Exists(ctx context.Context, id int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Warning)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check warning existence: %w", err)
		}

		return exists, nil
	})
}
