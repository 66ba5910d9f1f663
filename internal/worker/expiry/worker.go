// Package expiry implements the reconciler that sweeps warnings and bans
// whose expiry has passed but are still flagged active. Read paths already
// apply the time check themselves, so the sweep is housekeeping: it keeps
// bulk listings and history views converging without being a correctness
// dependency of any is-banned answer.
package expiry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/robalyx/aegis/internal/setup"
	"github.com/robalyx/aegis/internal/worker/core"
	"github.com/robalyx/aegis/pkg/utils"
)

const (
	// DefaultInterval is the sweep period when none is configured.
	DefaultInterval = 5 * time.Minute

	// DefaultBatchSize bounds how many records one sweep pass deactivates
	// per kind. Whatever is left over is picked up on the next tick.
	DefaultBatchSize = 500
)

// Sweeper deactivates expired records and reports how many it processed.
// The warning and ban services both satisfy this.
type Sweeper interface {
	SweepExpired(ctx context.Context, limit int) (int, error)
}

// Worker runs the expiry sweep on a fixed interval.
type Worker struct {
	warnings  Sweeper
	bans      Sweeper
	reporter  *core.StatusReporter
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

// New creates an expiry worker from the app bundle.
func New(app *setup.App, logger *zap.Logger) *Worker {
	interval := time.Duration(app.Config.Worker.Expiry.Interval) * time.Second
	batchSize := app.Config.Worker.Expiry.BatchSize

	return newWorker(
		app.DB.Service().Warning(),
		app.DB.Service().Ban(),
		core.NewStatusReporter(app.StatusClient, "expiry", logger),
		interval,
		batchSize,
		logger,
	)
}

func newWorker(
	warnings, bans Sweeper, reporter *core.StatusReporter,
	interval time.Duration, batchSize int, logger *zap.Logger,
) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Worker{
		warnings:  warnings,
		bans:      bans,
		reporter:  reporter,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.Named("expiry_worker"),
	}
}

// Start runs the sweep loop until the context is cancelled. The first sweep
// runs immediately; after that the worker sleeps for the configured interval
// between passes. The sleep starts after a sweep finishes, so a slow sweep
// pushes the next one back instead of stacking passes up.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Expiry worker started",
		zap.String("workerID", w.reporter.GetWorkerID()),
		zap.Duration("interval", w.interval),
		zap.Int("batchSize", w.batchSize))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		w.sweep(ctx)

		if utils.ContextSleep(ctx, w.interval) == utils.SleepCancelled {
			w.logger.Info("Expiry worker stopped")
			return
		}
	}
}

// sweep runs one pass over both record kinds. A failure in one kind is
// logged and does not stop the other; every record still flagged active
// stays in the working set for the next pass.
func (w *Worker) sweep(ctx context.Context) (warnings, bans int) {
	start := time.Now()

	w.reporter.SetHealthy(true)
	w.reporter.UpdateStatus("Sweeping warnings", 25)

	warnings, err := w.warnings.SweepExpired(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Warning sweep failed", zap.Error(err))
		w.reporter.SetHealthy(false)
	}

	w.reporter.UpdateStatus("Sweeping bans", 75)

	bans, err = w.bans.SweepExpired(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Ban sweep failed", zap.Error(err))
		w.reporter.SetHealthy(false)
	}

	w.reporter.UpdateStatus("Idle", 100)

	if warnings > 0 || bans > 0 {
		w.logger.Info("Sweep completed",
			zap.Int("expiredWarnings", warnings),
			zap.Int("expiredBans", bans),
			zap.Duration("elapsed", time.Since(start)))
	}

	return warnings, bans
}
