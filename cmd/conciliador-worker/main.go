package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"conciliador/internal/amqp"
	"conciliador/internal/app"
	"conciliador/internal/config"
	"conciliador/internal/worker"
)

// staleRunAge is how long a run may stay unfinished before the startup
// check closes it.
const staleRunAge = 30 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(cfg)
	logger.Info("Starting conciliador-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	runWorker := worker.NewRunWorker(a.Runner, a.Repo, staleRunAge)

	// Close runs a previous process left open; failures are not fatal
	logger.Info("Performing startup run check...")
	if err := runWorker.StartupRunCheck(ctx); err != nil {
		logger.Error("Failed startup run check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRunRequests(gctx, runWorker.HandleRunRequest)
	})
	g.Go(func() error {
		ticker := time.NewTicker(staleRunAge)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := runWorker.StartupRunCheck(gctx); err != nil {
					logger.Error("Periodic run check failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
