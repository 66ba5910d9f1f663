package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/dbretry"
	"github.com/robalyx/aegis/internal/database/types"
)

// ThresholdModel handles database operations for escalation thresholds.
type ThresholdModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewThreshold creates a new ThresholdModel instance.
func NewThreshold(db *bun.DB, logger *zap.Logger) *ThresholdModel {
	return &ThresholdModel{
		db:     db,
		logger: logger.Named("db_threshold"),
	}
}

// GetByCount retrieves the enabled threshold matching the warning count
// exactly. Disabled thresholds never match.
func (m *ThresholdModel) GetByCount(ctx context.Context, warningCount int) (*types.EscalationThreshold, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.EscalationThreshold, error) {
		var threshold types.EscalationThreshold

		err := m.db.NewSelect().
			Model(&threshold).
			Where("warning_count = ?", warningCount).
			Where("enabled = TRUE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrThresholdNotFound
			}

			return nil, fmt.Errorf("failed to get threshold: %w", err)
		}

		return &threshold, nil
	})
}

// GetAll retrieves every threshold ordered by warning count.
func (m *ThresholdModel) GetAll(ctx context.Context) ([]*types.EscalationThreshold, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.EscalationThreshold, error) {
		var thresholds []*types.EscalationThreshold

		err := m.db.NewSelect().
			Model(&thresholds).
			OrderExpr("warning_count ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get thresholds: %w", err)
		}

		return thresholds, nil
	})
}

// Upsert creates a threshold or replaces the action configured for its
// warning count.
func (m *ThresholdModel) Upsert(ctx context.Context, threshold *types.EscalationThreshold) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(threshold).
			On("CONFLICT (warning_count) DO UPDATE").
			Set("action = EXCLUDED.action").
			Set("duration = EXCLUDED.duration").
			Set("message = EXCLUDED.message").
			Set("enabled = EXCLUDED.enabled").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert threshold: %w", err)
		}

		return nil
	})
}

// SetEnabled flips a threshold on or off without touching its action.
func (m *ThresholdModel) SetEnabled(ctx context.Context, warningCount int, enabled bool) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := m.db.NewUpdate().
			Model((*types.EscalationThreshold)(nil)).
			Set("enabled = ?", enabled).
			Set("updated_at = NOW()").
			Where("warning_count = ?", warningCount).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to toggle threshold: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check toggle result: %w", err)
		}

		if affected == 0 {
			return types.ErrThresholdNotFound
		}

		return nil
	})
}

// Delete removes a threshold by its warning count.
func (m *ThresholdModel) Delete(ctx context.Context, warningCount int) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := m.db.NewDelete().
			Model((*types.EscalationThreshold)(nil)).
			Where("warning_count = ?", warningCount).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete threshold: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}

		if affected == 0 {
			return types.ErrThresholdNotFound
		}

		return nil
	})
}
