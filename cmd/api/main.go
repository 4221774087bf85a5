package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/api"
	"github.com/rjlee/actual-tx-linker/internal/application/runner"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/config"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/logging"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
	"github.com/rjlee/actual-tx-linker/internal/observability"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		port       = flag.Int("port", 0, "HTTP port (overrides config)")
		schedule   = flag.Bool("schedule", true, "Run link jobs on the configured interval")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *port > 0 {
		cfg.API.Port = *port
	}
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	flush := observability.Init(cfg.Observability.SentryDSN, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := actual.NewClient(actual.ClientConfig{
		ServerURL:          cfg.Actual.ServerURL,
		Password:           cfg.Actual.Password,
		SyncID:             cfg.Actual.SyncID,
		EncryptionPassword: cfg.Actual.EncryptionPassword,
	}, logger)
	if err != nil {
		logger.Error("Failed to create client", "error", err)
		os.Exit(1)
	}
	if err := client.Open(ctx); err != nil {
		logger.Error("Failed to open budget", "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to open run history", "error", err)
		os.Exit(1)
	}
	defer func() { _ = repo.Close() }()

	r := runner.New(cfg, client, repo, logger)
	if *schedule {
		go func() {
			if err := r.RunDaemon(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Scheduler stopped", "error", err)
			}
		}()
	}

	server := api.NewServer(api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}, repo, r, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}
