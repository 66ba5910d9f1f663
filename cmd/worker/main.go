package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/robalyx/aegis/internal/setup"
	"github.com/robalyx/aegis/internal/worker/expiry"
)

// WorkerLogDir specifies where worker log files are stored.
const WorkerLogDir = "logs/worker_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start the aegis background workers",
		Commands: []*cli.Command{
			{
				Name:  "expiry",
				Usage: "Start the expiry sweep worker",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Seconds between sweeps, overrides the configured value",
					},
					&cli.IntFlag{
						Name:    "batch-size",
						Aliases: []string{"b"},
						Usage:   "Records deactivated per sweep pass, overrides the configured value",
					},
				},
				Action: runExpiryWorker,
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runExpiryWorker starts the expiry worker and blocks until interrupted.
func runExpiryWorker(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, setup.ServiceWorker, WorkerLogDir, "expiry")
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	// Command line flags win over the config file
	if c.IsSet("interval") {
		app.Config.Worker.Expiry.Interval = int(c.Int("interval"))
	}

	if c.IsSet("batch-size") {
		app.Config.Worker.Expiry.BatchSize = int(c.Int("batch-size"))
	}

	workerLogger := app.LogManager.GetWorkerLogger("expiry_worker")

	log.Println("Started expiry worker")

	expiry.New(app, workerLogger).Start(ctx)

	log.Println("Worker has finished. Exiting.")

	return nil
}
