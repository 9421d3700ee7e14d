package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"conciliador/internal/amqp"
	"conciliador/internal/app"
	"conciliador/internal/config"
	apphttp "conciliador/internal/http"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	deps := apphttp.Deps{
		APIKey:               cfg.APIKey,
		DefaultSpreadsheetID: cfg.SpreadsheetID,
		Runner:               a.Runner,
		Runs:                 a.Repo,
		Recorder:             a.Repo,
		Logger:               logger,
	}

	// AMQP is optional: without it the async endpoint answers 503
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, async runs disabled", "error", err)
		} else {
			defer amqpClient.Close()
			deps.Publisher = amqpClient
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	// Runs read and write whole spreadsheets, so writes get a generous timeout
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 5 * time.Minute
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting conciliador server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp", deps.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
