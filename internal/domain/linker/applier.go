// Package linker applies accepted transfer matches to the ledger: it
// reassigns the kept side to a transfer payee, merges notes, clears the
// category, and removes the redundant duplicate.
package linker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/domain/matcher"
	"github.com/rjlee/actual-tx-linker/internal/retry"
)

// Options controls how matches are applied.
type Options struct {
	Keep             string // which side to keep: outgoing (default) or incoming
	PreferReconciled bool   // keep the reconciled side when exactly one is
	DeleteDuplicate  bool   // delete the dropped side after linking
	MergeNotes       bool   // append the transfer summary to the kept notes
	MaxLinksPerRun   int    // stop once this many matches were processed
	DryRun           bool   // log planned actions without mutating
}

// DefaultOptions returns the link-run defaults.
func DefaultOptions() Options {
	return Options{
		Keep:             KeepOutgoing,
		PreferReconciled: true,
		DeleteDuplicate:  true,
		MergeNotes:       true,
		MaxLinksPerRun:   50,
	}
}

// AppliedLink records one applied (or previewed) link for the run history.
type AppliedLink struct {
	KeptID     string
	DroppedID  string
	SrcAccount string
	DstAccount string
	Amount     int64
	Score      float64
	SameDay    bool
	DryRun     bool
}

// deleteRetry is the bounded policy for duplicate deletion: one immediate
// attempt plus one retry after a short delay.
var deleteRetry = retry.Policy{Attempts: 2, Delay: 250 * time.Millisecond}

// Applier pushes accepted matches back to the store, one mutation at a
// time. Mutations are strictly sequential so the per-run cap and the
// used-id bookkeeping stay deterministic.
type Applier struct {
	store    actual.Store
	accounts map[string]actual.Account
	payees   *PayeeResolver
	logger   *slog.Logger
	opts     Options
}

// NewApplier creates an applier over the fetched account snapshot.
func NewApplier(store actual.Store, accounts map[string]actual.Account, logger *slog.Logger, opts Options) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		store:    store,
		accounts: accounts,
		payees:   NewPayeeResolver(store),
		logger:   logger,
		opts:     opts,
	}
}

// Apply processes the final matches in order, stopping at the per-run cap,
// and triggers a best-effort sync afterwards. It returns the number of
// links applied, the number of per-item failures, and a record per
// processed match. In dry-run mode every action is logged but nothing is
// mutated and the linked count stays zero.
func (a *Applier) Apply(ctx context.Context, matches []matcher.Match) (linked, failures int, records []AppliedLink) {
	processed := 0
	for _, m := range matches {
		if a.opts.MaxLinksPerRun > 0 && processed >= a.opts.MaxLinksPerRun {
			a.logger.Info("Reached max links per run, stopping", "max", a.opts.MaxLinksPerRun)
			break
		}
		processed++

		a.logger.Info("Linking transfer",
			"from", a.accountName(m.Out.Account),
			"to", a.accountName(m.Inc.Account),
			"amount", actual.AmountUnits(m.Out.Amount),
			"score", m.Score,
			"out_date", m.Out.Date,
			"inc_date", m.Inc.Date,
			"same_day", m.SameDay,
		)

		keep, drop := ChooseKeepDrop(m.Out, m.Inc, a.opts.Keep, a.opts.PreferReconciled)
		record := AppliedLink{
			KeptID:     keep.ID,
			DroppedID:  drop.ID,
			SrcAccount: m.Out.Account,
			DstAccount: m.Inc.Account,
			Amount:     abs(m.Out.Amount),
			Score:      m.Score,
			SameDay:    m.SameDay,
			DryRun:     a.opts.DryRun,
		}

		if a.opts.DryRun {
			a.previewLink(keep, drop)
			records = append(records, record)
			continue
		}

		if err := a.applyLink(ctx, keep, drop); err != nil {
			a.logger.Warn("Linking failed", "kept", keep.ID, "error", err)
			failures++
			continue
		}

		if a.opts.DeleteDuplicate {
			err := deleteRetry.Do(ctx, func(ctx context.Context) error {
				return a.store.DeleteTransaction(ctx, drop.ID)
			})
			if err != nil {
				// Non-fatal: the link itself succeeded.
				a.logger.Warn("Delete failed after retry", "dropped", drop.ID, "error", err)
				failures++
			}
		}

		linked++
		records = append(records, record)
	}

	if err := a.store.Sync(ctx); err != nil {
		a.logger.Warn("Sync after linking failed", "error", err)
	}

	return linked, failures, records
}

// applyLink updates the kept side: transfer payee, merged notes, cleared
// category.
func (a *Applier) applyLink(ctx context.Context, keep, drop actual.Transaction) error {
	destAccount := drop.Account
	payeeID, err := a.payees.TransferPayeeID(ctx, destAccount)
	if err != nil {
		return err
	}

	update := actual.TransactionUpdate{Payee: payeeID}
	if keep.Category != "" {
		update.ClearCategory = true
	}
	if a.opts.MergeNotes {
		merged := MergedNotes(keep, drop, a.accountName(drop.Account))
		if merged != keep.Notes {
			update.Notes = merged
			update.SetNotes = true
		}
	}
	return a.store.UpdateTransaction(ctx, keep.ID, update)
}

// previewLink logs what applyLink would do without touching the store.
// Payee creation is skipped too: dry runs make no calls at all.
func (a *Applier) previewLink(keep, drop actual.Transaction) {
	fields := []any{
		"kept", keep.ID,
		"dropped", drop.ID,
		"transfer_into", a.accountName(drop.Account),
	}
	if keep.Category != "" {
		fields = append(fields, "clear_category", true)
	}
	if a.opts.MergeNotes {
		if merged := MergedNotes(keep, drop, a.accountName(drop.Account)); merged != keep.Notes {
			fields = append(fields, "notes", merged)
		}
	}
	if !a.opts.DeleteDuplicate {
		fields = append(fields, "delete_duplicate", false)
	}
	a.logger.Info("DRY RUN: would link transfer and delete duplicate", fields...)
}

func (a *Applier) accountName(id string) string {
	if acct, ok := a.accounts[id]; ok && acct.Name != "" {
		return acct.Name
	}
	return id
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
