package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rjlee/actual-tx-linker/internal/domain/repair"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// RepairOnce executes one full repair run over every account: fetch,
// audit, record. It returns the number of repaired transactions (zero in
// dry-run mode).
func (r *Runner) RepairOnce(ctx context.Context) (int, error) {
	rc := r.cfg.Repair
	since, until, err := resolveRange(rc.LookbackDays, "", "", r.now())
	if err != nil {
		return 0, err
	}

	runID := uuid.NewString()
	run := &storage.Run{
		ID:           runID,
		Mode:         storage.ModeRepair,
		StartedAt:    r.now().UTC().Format("2006-01-02 15:04:05"),
		DryRun:       rc.DryRun,
		LookbackDays: rc.LookbackDays,
		WindowHours:  rc.WindowHours,
		MinScore:     rc.MinScore,
		Status:       storage.StatusRunning,
	}
	r.startRun(run)

	r.logger.Info("Starting repair run",
		"since", since,
		"until", until,
		"window_hours", rc.WindowHours,
		"dry_run", rc.DryRun,
	)

	accounts, err := r.store.Accounts(ctx)
	if err != nil {
		r.completeRun(runID, storage.RunCounts{}, storage.StatusFailed)
		return 0, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	payees, err := r.store.Payees(ctx)
	if err != nil {
		r.completeRun(runID, storage.RunCounts{}, storage.StatusFailed)
		return 0, fmt.Errorf("failed to fetch payees: %w", err)
	}

	// Repair always audits the full account set: broken links do not
	// respect include lists.
	txns := r.fetchTransactions(ctx, accounts, since, until)
	r.logger.Info("Fetched transactions", "accounts", len(accounts), "count", len(txns))

	auditor := repair.NewAuditor(r.store, accountIndex(accounts), payees, r.logger, repair.Options{
		WindowHours:      rc.WindowHours,
		MinScore:         rc.MinScore,
		ClearedOnly:      rc.ClearedOnly,
		SkipReconciled:   rc.SkipReconciled,
		PreferReconciled: rc.PreferReconciled,
		Keep:             rc.Keep,
		DeleteDuplicate:  rc.DeleteDuplicate,
		MaxRepairsPerRun: rc.MaxRepairsPerRun,
		DryRun:           rc.DryRun,
	})
	repaired := auditor.Run(ctx, txns)

	r.completeRun(runID, storage.RunCounts{Matched: repaired}, storage.StatusCompleted)

	r.logger.Info("Repair run finished", "repaired", repaired, "dry_run", rc.DryRun)
	return repaired, nil
}
