package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/robalyx/aegis/cmd/db/commands"
	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database"
	"github.com/robalyx/aegis/internal/database/migrations"
	"github.com/robalyx/aegis/internal/database/service"
	"github.com/robalyx/aegis/internal/notifier"
	"github.com/robalyx/aegis/internal/setup/config"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Setup dependencies
	deps, err := setupDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close() //nolint:errcheck // -

	var cmds []*cli.Command
	cmds = append(cmds, commands.MigrationCommands(deps)...)
	cmds = append(cmds, commands.ThresholdCommands(deps)...)

	app := &cli.Command{
		Name:     "db",
		Usage:    "Database management tool",
		Commands: cmds,
	}

	return app.Run(ctx, os.Args)
}

// setupDependencies initializes the database connection and migrator. The
// admin tool talks straight to the database, so caching and notifications
// stay off.
func setupDependencies(ctx context.Context) (*commands.CLIDependencies, error) {
	// Load full configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Create development logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Connect to database without caching or notifications
	statusCache := cache.NewStatusCache(cache.StatusCacheOptions{}, logger)

	db, err := database.NewConnection(
		ctx, &cfg.Common.PostgreSQL, statusCache, notifier.NewNoop(), service.BanPolicy{}, logger, false,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create migrator using database connection and migrations
	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrator,
		Logger:   logger,
	}, nil
}
