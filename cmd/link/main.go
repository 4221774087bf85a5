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
		configFile   = flag.String("config", "config.yaml", "Configuration file path")
		dryRun       = flag.Bool("dry-run", true, "Preview changes without applying")
		apply        = flag.Bool("apply", false, "Apply changes (overrides -dry-run)")
		days         = flag.Int("days", 14, "Number of days to look back")
		startDate    = flag.String("start-date", "", "Explicit range start (YYYY-MM-DD, overrides -days)")
		endDate      = flag.String("end-date", "", "Explicit range end (YYYY-MM-DD)")
		windowHours  = flag.Int("window-hours", 72, "Maximum hours between the two sides of a transfer")
		minScore     = flag.Float64("min-score", 0.2, "Minimum description similarity to accept a match")
		keep         = flag.String("keep", "outgoing", "Which side to keep: outgoing or incoming")
		maxLinks     = flag.Int("max-links", 50, "Maximum links per run (0 = unlimited)")
		includeAccts = flag.String("include-accounts", "", "Comma-separated account ids or names to include")
		excludeAccts = flag.String("exclude-accounts", "", "Comma-separated account ids or names to exclude")
		clearedOnly  = flag.Bool("cleared-only", true, "Only consider cleared transactions")
		pairMulti    = flag.Bool("pair-multiples", true, "Pair equal-sized ambiguous groups from a single account")
		mergeNotes   = flag.Bool("merge-notes", true, "Merge the dropped side's notes into the kept side")
		deleteDupe   = flag.Bool("delete-duplicate", true, "Delete the duplicate side after linking")
		daemon       = flag.Bool("daemon", false, "Run continuously on an interval")
		interval     = flag.Int("interval", 60, "Minutes between scheduled runs (daemon mode)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)

	// Flags only override what was explicitly set on the command line.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["dry-run"] {
		cfg.Link.DryRun = *dryRun
	}
	if *apply {
		cfg.Link.DryRun = false
	}
	if set["days"] {
		cfg.Link.LookbackDays = *days
	}
	if set["start-date"] {
		cfg.Link.StartDate = *startDate
	}
	if set["end-date"] {
		cfg.Link.EndDate = *endDate
	}
	if set["window-hours"] {
		cfg.Link.WindowHours = *windowHours
	}
	if set["min-score"] {
		cfg.Link.MinScore = *minScore
	}
	if set["keep"] {
		cfg.Link.Keep = *keep
	}
	if set["max-links"] {
		cfg.Link.MaxLinksPerRun = *maxLinks
	}
	if set["include-accounts"] {
		cfg.Link.IncludeAccounts = config.SplitList([]string{*includeAccts})
	}
	if set["exclude-accounts"] {
		cfg.Link.ExcludeAccounts = config.SplitList([]string{*excludeAccts})
	}
	if set["cleared-only"] {
		cfg.Link.ClearedOnly = *clearedOnly
	}
	if set["pair-multiples"] {
		cfg.Link.PairMultiples = *pairMulti
	}
	if set["merge-notes"] {
		cfg.Link.MergeNotes = *mergeNotes
	}
	if set["delete-duplicate"] {
		cfg.Link.DeleteDuplicate = *deleteDupe
	}
	if set["interval"] {
		cfg.Link.IntervalMins = *interval
	}
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "link")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	flush := observability.Init(cfg.Observability.SentryDSN, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *daemon); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, daemon bool) error {
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
	if daemon {
		if err := r.RunDaemon(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	linked, err := r.LinkOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("Done", "linked", linked, "dry_run", cfg.Link.DryRun)
	return nil
}
