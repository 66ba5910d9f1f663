package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/robalyx/aegis/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Create tables; identities first so moderation records can
		// reference it
		models := []any{
			(*types.Identity)(nil),
			(*types.Warning)(nil),
			(*types.Ban)(nil),
			(*types.Kick)(nil),
			(*types.EscalationThreshold)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		// Moderation records always point at known identities
		_, err := db.NewRaw(`
			ALTER TABLE warnings
			ADD CONSTRAINT fk_warnings_subject FOREIGN KEY (subject_id) REFERENCES identities (id);

			ALTER TABLE warnings
			ADD CONSTRAINT fk_warnings_issuer FOREIGN KEY (issuer_id) REFERENCES identities (id);

			ALTER TABLE bans
			ADD CONSTRAINT fk_bans_subject FOREIGN KEY (subject_id) REFERENCES identities (id);

			ALTER TABLE bans
			ADD CONSTRAINT fk_bans_issuer FOREIGN KEY (issuer_id) REFERENCES identities (id);

			ALTER TABLE kicks
			ADD CONSTRAINT fk_kicks_subject FOREIGN KEY (subject_id) REFERENCES identities (id);

			ALTER TABLE kicks
			ADD CONSTRAINT fk_kicks_issuer FOREIGN KEY (issuer_id) REFERENCES identities (id);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add foreign keys: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Down migration - drop all tables, referencing tables first
		models := []any{
			(*types.EscalationThreshold)(nil),
			(*types.Kick)(nil),
			(*types.Ban)(nil),
			(*types.Warning)(nil),
			(*types.Identity)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
