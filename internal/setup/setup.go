package setup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/aegis/internal/cache"
	"github.com/robalyx/aegis/internal/database"
	"github.com/robalyx/aegis/internal/database/migrations"
	"github.com/robalyx/aegis/internal/database/service"
	"github.com/robalyx/aegis/internal/notifier"
	"github.com/robalyx/aegis/internal/redis"
	"github.com/robalyx/aegis/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting
	StatusCache  *cache.StatusCache // In-process ban and identity cache
	Notifier     notifier.Notifier  // Moderation event sink
	LogManager   *LogManager        // Log management system
	pprofServer  *pprofServer       // Debug HTTP server for pprof
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
// Workers can provide their type for service identification.
func InitializeApp(ctx context.Context, serviceType ServiceType, logDir string, workerInfo ...string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Extract worker information if provided
	var workerType string
	if len(workerInfo) >= 1 {
		workerType = workerInfo[0]
	}

	// Logging system is initialized next to capture setup issues
	logManager := NewLogManager(serviceType, logDir, &cfg.Common.Debug, workerType)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	// Get Redis client for worker status reporting
	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}

	// Status cache fronts the hot ban and identity lookups
	statusCache := cache.NewStatusCache(cache.StatusCacheOptions{
		Enabled:      cfg.Common.Cache.Enabled,
		BanStatusTTL: time.Duration(cfg.Common.Cache.BanStatusTTL) * time.Second,
		IdentityTTL:  time.Duration(cfg.Common.Cache.IdentityTTL) * time.Second,
		MaxEntries:   cfg.Common.Cache.MaxEntries,
	}, logger)

	// Moderation events go to Discord when a webhook is configured
	sink, err := newNotifier(&cfg.Common.Webhook, logger)
	if err != nil {
		return nil, err
	}

	policy := service.BanPolicy{
		FailClosed:       cfg.Worker.Admission.FailClosed,
		AdmissionTimeout: time.Duration(cfg.Worker.Admission.Timeout) * time.Millisecond,
	}

	// Initialize database with migration check
	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, statusCache, sink, policy, dbLogger)
	if err != nil {
		return nil, err
	}

	// The console identity backs every action taken outside a player session
	if _, err := db.Service().Identity().EnsureConsole(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure console identity: %w", err)
	}

	// Start pprof server if enabled
	var pprofSrv *pprofServer

	if cfg.Common.Debug.EnablePprof {
		srv, err := startPprofServer(cfg.Common.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		} else {
			pprofSrv = srv

			logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
		}
	}

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		StatusCache:  statusCache,
		Notifier:     sink,
		LogManager:   logManager,
		pprofServer:  pprofSrv,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	// Shutdown pprof server if running
	if s.pprofServer != nil {
		if err := s.pprofServer.srv.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}

		s.pprofServer.listener.Close()
	}

	// Let in-flight webhook deliveries finish
	s.Notifier.Close(ctx)

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	s.StatusCache.Close()

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}

// newNotifier builds the event sink from webhook configuration.
// A disabled or unset webhook yields a no-op sink.
func newNotifier(cfg *config.Webhook, logger *zap.Logger) (notifier.Notifier, error) {
	if !cfg.Enabled {
		return notifier.NewNoop(), nil
	}

	timeout := time.Duration(cfg.Timeout) * time.Millisecond

	if cfg.URL != "" {
		sink, err := notifier.NewWebhook(cfg.URL, timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook notifier: %w", err)
		}

		return sink, nil
	}

	if cfg.ID != 0 && cfg.Token != "" {
		return notifier.NewWebhookWithToken(snowflake.ID(cfg.ID), cfg.Token, timeout, logger), nil
	}

	logger.Warn("Webhook notifications enabled but no URL or ID/token configured, using no-op sink")

	return notifier.NewNoop(), nil
}

// checkAndRunMigrations runs database migrations if needed.
func checkAndRunMigrations(
	ctx context.Context, cfg *config.PostgreSQL, statusCache *cache.StatusCache,
	sink notifier.Notifier, policy service.BanPolicy, dbLogger *zap.Logger,
) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, statusCache, sink, policy, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	var db database.Client

	unapplied := ms.Unapplied()
	if len(unapplied) > 0 {
		log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

		var response string

		_, _ = fmt.Scanln(&response)

		if response == "y" || response == "Y" {
			tempDB.Close()

			db, err = database.NewConnection(ctx, cfg, statusCache, sink, policy, dbLogger, true)
		} else {
			log.Fatalf("Closing program due to incomplete migrations")
		}
	} else {
		db = tempDB
	}

	return db, err
}
