package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/database/types/enum"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Default escalation ladder: kick at 3 warnings, a day-long ban at
		// 5, permanent at 7. Operators tune these through the threshold
		// admin commands afterwards.
		day := 24 * time.Hour
		now := time.Now().UTC()

		thresholds := []*types.EscalationThreshold{
			{
				WarningCount: 3,
				Action:       enum.ThresholdActionKick,
				Enabled:      true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				WarningCount: 5,
				Action:       enum.ThresholdActionTempBan,
				Duration:     &day,
				Enabled:      true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			{
				WarningCount: 7,
				Action:       enum.ThresholdActionPermBan,
				Enabled:      true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		}

		_, err := db.NewInsert().
			Model(&thresholds).
			On("CONFLICT (warning_count) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed default thresholds: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDelete().
			Model((*types.EscalationThreshold)(nil)).
			Where("warning_count IN (3, 5, 7)").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove default thresholds: %w", err)
		}

		return nil
	})
}
