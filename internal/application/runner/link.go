package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/domain/linker"
	"github.com/rjlee/actual-tx-linker/internal/domain/matcher"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// LinkOnce executes one full link run: fetch, match, apply, record. It
// returns the number of links applied (zero in dry-run mode).
func (r *Runner) LinkOnce(ctx context.Context) (int, error) {
	lc := r.cfg.Link
	since, until, err := resolveRange(lc.LookbackDays, lc.StartDate, lc.EndDate, r.now())
	if err != nil {
		return 0, err
	}

	runID := uuid.NewString()
	run := &storage.Run{
		ID:           runID,
		Mode:         storage.ModeLink,
		StartedAt:    r.now().UTC().Format("2006-01-02 15:04:05"),
		DryRun:       lc.DryRun,
		LookbackDays: lc.LookbackDays,
		WindowHours:  lc.WindowHours,
		MinScore:     lc.MinScore,
		Status:       storage.StatusRunning,
	}
	r.startRun(run)

	r.logger.Info("Starting link run",
		"since", since,
		"until", until,
		"window_hours", lc.WindowHours,
		"min_score", lc.MinScore,
		"dry_run", lc.DryRun,
	)

	accounts, err := r.store.Accounts(ctx)
	if err != nil {
		r.completeRun(runID, storage.RunCounts{}, storage.StatusFailed)
		return 0, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	eligible := matcher.FilterAccounts(accounts, lc.IncludeAccounts, lc.ExcludeAccounts, r.logger)
	accountsByID := accountIndex(accounts)

	txns := r.fetchTransactions(ctx, eligible, since, until)
	r.logger.Info("Fetched transactions", "accounts", len(eligible), "count", len(txns))

	m := matcher.NewMatcher(matcher.Config{
		WindowHours:    lc.WindowHours,
		MinScore:       lc.MinScore,
		ClearedOnly:    lc.ClearedOnly,
		SkipReconciled: lc.SkipReconciled,
		PairMultiples:  lc.PairMultiples,
	}, r.logger)
	matches, stats := m.FindMatches(txns, accountsByID)
	r.logger.Info("Matching finished",
		"matches", len(matches),
		"candidates", stats.CandidatesEvaluated,
		"ambiguous", stats.Ambiguous,
		"below_score", stats.BelowScore,
		"no_candidate", stats.NoCandidateInWindow,
	)

	applier := linker.NewApplier(r.store, accountsByID, r.logger, linker.Options{
		Keep:             lc.Keep,
		PreferReconciled: lc.PreferReconciled,
		DeleteDuplicate:  lc.DeleteDuplicate,
		MergeNotes:       lc.MergeNotes,
		MaxLinksPerRun:   lc.MaxLinksPerRun,
		DryRun:           lc.DryRun,
	})
	linked, failures, records := applier.Apply(ctx, matches)

	r.saveLinkRecords(runID, records)
	r.completeRun(runID, storage.RunCounts{
		Matched:     linked,
		Ambiguous:   stats.Ambiguous,
		BelowScore:  stats.BelowScore,
		NoCandidate: stats.NoCandidateInWindow,
		Failures:    failures,
	}, storage.StatusCompleted)

	r.logger.Info("Link run finished",
		"linked", linked,
		"failures", failures,
		"dry_run", lc.DryRun,
	)
	return linked, nil
}

// fetchTransactions pulls the date-bounded snapshot account by account. A
// failed account fetch is logged and skipped so one broken account does
// not starve the rest.
func (r *Runner) fetchTransactions(ctx context.Context, accounts []actual.Account, since, until string) []actual.Transaction {
	var txns []actual.Transaction
	for _, acct := range accounts {
		list, err := r.store.Transactions(ctx, acct.ID, since, until)
		if err != nil {
			r.logger.Warn("Failed to fetch transactions, skipping account",
				"account", acct.Name,
				"error", err,
			)
			continue
		}
		txns = append(txns, list...)
	}
	return txns
}

func (r *Runner) saveLinkRecords(runID string, records []linker.AppliedLink) {
	if r.repo == nil {
		return
	}
	for _, rec := range records {
		action := "linked"
		if rec.DryRun {
			action = "previewed"
		}
		err := r.repo.SaveLinkRecord(&storage.LinkRecord{
			RunID:      runID,
			KeptID:     rec.KeptID,
			DroppedID:  rec.DroppedID,
			SrcAccount: rec.SrcAccount,
			DstAccount: rec.DstAccount,
			Amount:     rec.Amount,
			Score:      rec.Score,
			SameDay:    rec.SameDay,
			Action:     action,
		})
		if err != nil {
			r.logger.Warn("Failed to save link record", "kept", rec.KeptID, "error", err)
		}
	}
}

func accountIndex(accounts []actual.Account) map[string]actual.Account {
	byID := make(map[string]actual.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID
}
