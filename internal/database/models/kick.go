package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/database/dbretry"
	"github.com/robalyx/aegis/internal/database/types"
)

// KickModel handles database operations for kicks.
type KickModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewKick creates a new KickModel instance.
func NewKick(db *bun.DB, logger *zap.Logger) *KickModel {
	return &KickModel{
		db:     db,
		logger: logger.Named("db_kick"),
	}
}

// Create persists a new kick record and fills in its generated ID.
func (m *KickModel) Create(ctx context.Context, kick *types.Kick) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(kick).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create kick: %w", err)
		}

		return nil
	})
}

// GetHistory retrieves a page of kicks issued against a subject, newest
// first. The ordering ties on id so pages stay stable.
func (m *KickModel) GetHistory(ctx context.Context, subjectID uuid.UUID, page types.Page) ([]*types.Kick, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Kick, error) {
		var kicks []*types.Kick

		err := m.db.NewSelect().
			Model(&kicks).
			Where("subject_id = ?", subjectID).
			OrderExpr("created_at DESC, id DESC").
			Offset(page.Offset()).
			Limit(page.Size).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get kick history: %w", err)
		}

		return kicks, nil
	})
}

// CountRecentBySubject counts kicks issued against a subject since the given
// instant. Useful for spotting players cycling through kicks without bans.
func (m *KickModel) CountRecentBySubject(ctx context.Context, subjectID uuid.UUID, since time.Time) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Kick)(nil)).
			Where("subject_id = ?", subjectID).
			Where("created_at >= ?", since).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count recent kicks: %w", err)
		}

		return count, nil
	})
}
