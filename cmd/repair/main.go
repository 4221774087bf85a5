package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/application/runner"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/config"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/logging"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
	"github.com/rjlee/actual-tx-linker/internal/observability"
)

func main() {
	var (
		configFile  = flag.String("config", "config.yaml", "Configuration file path")
		dryRun      = flag.Bool("dry-run", true, "Preview changes without applying")
		apply       = flag.Bool("apply", false, "Apply changes (overrides -dry-run)")
		days        = flag.Int("days", 30, "Number of days to look back")
		windowHours = flag.Int("window-hours", 96, "Maximum hours between the two sides of a transfer")
		maxRepairs  = flag.Int("max-repairs", 100, "Maximum repairs per run")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["dry-run"] {
		cfg.Repair.DryRun = *dryRun
	}
	if *apply {
		cfg.Repair.DryRun = false
	}
	if set["days"] {
		cfg.Repair.LookbackDays = *days
	}
	if set["window-hours"] {
		cfg.Repair.WindowHours = *windowHours
	}
	if set["max-repairs"] {
		cfg.Repair.MaxRepairsPerRun = *maxRepairs
	}
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "repair")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	flush := observability.Init(cfg.Observability.SentryDSN, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client, err := actual.NewClient(actual.ClientConfig{
		ServerURL:          cfg.Actual.ServerURL,
		Password:           cfg.Actual.Password,
		SyncID:             cfg.Actual.SyncID,
		EncryptionPassword: cfg.Actual.EncryptionPassword,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Open(ctx); err != nil {
		return fmt.Errorf("failed to open budget: %w", err)
	}
	defer func() { _ = client.Close() }()

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() { _ = repo.Close() }()

	r := runner.New(cfg, client, repo, logger)
	repaired, err := r.RepairOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("Done", "repaired", repaired, "dry_run", cfg.Repair.DryRun)
	return nil
}
