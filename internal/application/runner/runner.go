// Package runner orchestrates link and repair runs: it fetches the
// snapshot from the store, hands it to the domain layer, and records the
// outcome in the run history. Runs are single-flight: a trigger that
// arrives while a run is active is remembered and replayed once.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/config"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
	"github.com/rjlee/actual-tx-linker/internal/observability"
)

// DefaultDebounce is the delay applied to externally triggered runs, so a
// burst of triggers collapses into one run.
const DefaultDebounce = 2 * time.Second

// Runner coordinates runs against one budget session. The session
// lifecycle (Open/Close) is owned by the caller; the runner only uses the
// store.
type Runner struct {
	cfg    *config.Config
	store  actual.Store
	repo   storage.Repository
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu       sync.Mutex
	running  bool
	pending  string // mode to replay after the active run, "" for none
	debounce *time.Timer
}

// New creates a runner. repo may be nil when run history is not wanted.
func New(cfg *config.Config, store actual.Store, repo storage.Repository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		store:  store,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RunJob executes one run of the given mode unless another run is already
// active, in which case the request is remembered and replayed after the
// active run finishes. Returns the number of linked or repaired
// transactions.
func (r *Runner) RunJob(ctx context.Context, mode string) (int, error) {
	r.mu.Lock()
	if r.running {
		r.pending = mode
		r.mu.Unlock()
		r.logger.Info("Run already in progress, queued follow-up", "mode", mode)
		return 0, nil
	}
	r.running = true
	r.mu.Unlock()

	var count int
	var err error
	switch mode {
	case storage.ModeRepair:
		count, err = r.RepairOnce(ctx)
	default:
		count, err = r.LinkOnce(ctx)
	}
	if err != nil {
		observability.CaptureError(err)
		r.logger.Error("Run failed", "mode", mode, "error", err)
	}

	r.mu.Lock()
	r.running = false
	replay := r.pending
	r.pending = ""
	r.mu.Unlock()

	if replay != "" {
		r.Trigger(replay, DefaultDebounce)
	}
	return count, err
}

// Trigger schedules a debounced run of the given mode. A second trigger
// within the delay resets the timer, so bursts (webhooks, repeated API
// calls) collapse into one run.
func (r *Runner) Trigger(mode string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.debounce != nil {
		r.debounce.Stop()
	}
	r.debounce = time.AfterFunc(delay, func() {
		_, _ = r.RunJob(context.Background(), mode)
	})
}

// RunDaemon runs link jobs on the configured interval until the context is
// cancelled. The first run starts immediately.
func (r *Runner) RunDaemon(ctx context.Context) error {
	interval := time.Duration(r.cfg.Link.IntervalMins) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	r.logger.Info("Starting scheduler", "interval", interval)
	for {
		if _, err := r.RunJob(ctx, storage.ModeLink); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			r.logger.Info("Scheduler stopping")
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// startRun opens a history entry. History failures never fail the run.
func (r *Runner) startRun(run *storage.Run) {
	if r.repo == nil {
		return
	}
	if err := r.repo.StartRun(run); err != nil {
		r.logger.Warn("Failed to record run start", "error", err)
	}
}

// completeRun closes a history entry.
func (r *Runner) completeRun(id string, counts storage.RunCounts, status string) {
	if r.repo == nil {
		return
	}
	if err := r.repo.CompleteRun(id, counts, status); err != nil {
		r.logger.Warn("Failed to record run completion", "error", err)
	}
}
