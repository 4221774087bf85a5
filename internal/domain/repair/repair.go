// Package repair audits already-linked data and restores the transfer
// invariants the linker relies on. Three independent passes run in order:
// self-transfer repair, linked-pair alignment, and category cleanup. A
// transaction repaired in an earlier pass is never touched again in the
// same run, and all passes share one repair cap.
package repair

import (
	"context"
	"log/slog"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/domain/linker"
	"github.com/rjlee/actual-tx-linker/internal/domain/matcher"
)

// Options controls the repair pass.
type Options struct {
	WindowHours      int
	MinScore         float64
	ClearedOnly      bool
	SkipReconciled   bool
	PreferReconciled bool
	Keep             string
	DeleteDuplicate  bool
	MaxRepairsPerRun int
	DryRun           bool
}

// DefaultOptions returns the repair defaults: a wider window and no score
// floor, since repair candidates were usually linked once already.
func DefaultOptions() Options {
	return Options{
		WindowHours:      96,
		MinScore:         0,
		PreferReconciled: true,
		Keep:             linker.KeepOutgoing,
		DeleteDuplicate:  true,
		MaxRepairsPerRun: 100,
		DryRun:           true,
	}
}

// Auditor repairs invariant violations over a fetched snapshot.
type Auditor struct {
	store    actual.Store
	accounts map[string]actual.Account
	payees   map[string]actual.Payee
	resolver *linker.PayeeResolver
	logger   *slog.Logger
	opts     Options

	used     map[string]bool
	repaired int
}

// NewAuditor creates an auditor over the fetched account and payee
// snapshots.
func NewAuditor(store actual.Store, accounts map[string]actual.Account, payees []actual.Payee, logger *slog.Logger, opts Options) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	payeeByID := make(map[string]actual.Payee, len(payees))
	for _, p := range payees {
		payeeByID[p.ID] = p
	}
	return &Auditor{
		store:    store,
		accounts: accounts,
		payees:   payeeByID,
		resolver: linker.NewPayeeResolver(store),
		logger:   logger,
		opts:     opts,
	}
}

// Run executes the three repair passes over the snapshot and triggers a
// best-effort sync. It returns the number of repaired transactions; dry
// runs log every intended action and report zero.
func (a *Auditor) Run(ctx context.Context, txns []actual.Transaction) int {
	a.used = make(map[string]bool)
	a.repaired = 0

	a.repairSelfTransfers(ctx, txns)
	a.alignLinkedPairs(ctx, txns)
	a.clearTransferCategories(ctx, txns)

	if err := a.store.Sync(ctx); err != nil {
		a.logger.Warn("Sync after repair failed", "error", err)
	}
	a.logger.Info("Repair finished", "repaired", a.repaired)
	return a.repaired
}

// isSelfTransfer reports whether the transaction's payee designates a
// transfer into its own account.
func (a *Auditor) isSelfTransfer(t actual.Transaction) bool {
	if t.Payee == "" {
		return false
	}
	p, ok := a.payees[t.Payee]
	return ok && p.TransferAcct != "" && p.TransferAcct == t.Account
}

// passesFilters applies the shared eligibility filters of the repair pass.
func (a *Auditor) passesFilters(t actual.Transaction) bool {
	if t.Amount == 0 || t.IsSplit() {
		return false
	}
	if a.opts.ClearedOnly && !t.Cleared {
		return false
	}
	if a.opts.SkipReconciled && t.Reconciled {
		return false
	}
	return true
}

func (a *Auditor) capReached() bool {
	if a.repaired >= a.opts.MaxRepairsPerRun {
		a.logger.Info("Repair cap reached", "max", a.opts.MaxRepairsPerRun)
		return true
	}
	return false
}

// repairSelfTransfers finds transactions whose payee points back at their
// own account, searches the opposite-sign pool for the true counterpart,
// and repoints the kept side at the counterpart's transfer payee.
func (a *Auditor) repairSelfTransfers(ctx context.Context, txns []actual.Transaction) {
	var positives, negatives []actual.Transaction
	for _, t := range txns {
		if t.IsSplit() {
			continue
		}
		switch {
		case t.Amount > 0:
			positives = append(positives, t)
		case t.Amount < 0:
			negatives = append(negatives, t)
		}
	}
	posByAmt := groupByAmount(positives)
	negByAmt := groupByAmount(negatives)

	for _, bad := range txns {
		if !a.passesFilters(bad) || !a.isSelfTransfer(bad) {
			continue
		}
		if a.used[bad.ID] {
			continue
		}
		if a.capReached() {
			return
		}

		pool := posByAmt[abs(bad.Amount)]
		if bad.Amount > 0 {
			pool = negByAmt[abs(bad.Amount)]
		}
		var cands []actual.Transaction
		for _, cand := range pool {
			if cand.Account == bad.Account || cand.IsTransfer() || a.used[cand.ID] {
				continue
			}
			if !actual.WithinWindow(bad.Date, cand.Date, a.opts.WindowHours) {
				continue
			}
			if a.opts.ClearedOnly && !cand.Cleared {
				continue
			}
			if a.opts.SkipReconciled && cand.Reconciled {
				continue
			}
			cands = append(cands, cand)
		}
		if len(cands) == 0 {
			continue
		}

		best, tied := matcher.Rank(bad, cands)
		if best.Score < a.opts.MinScore || len(tied) > 1 {
			// A single unambiguous winner is required; anything else is
			// left for a human.
			continue
		}

		out, inc := bad, best.Tx
		if bad.Amount > 0 {
			out, inc = best.Tx, bad
		}
		keep, drop := linker.ChooseKeepDrop(out, inc, a.opts.Keep, a.opts.PreferReconciled)
		destAccount := inc.Account
		if keep.Account == inc.Account {
			destAccount = out.Account
		}

		a.logger.Info("Fixing self-transfer",
			"from", a.accountName(keep.Account),
			"to", a.accountName(destAccount),
			"amount", actual.AmountUnits(bad.Amount),
			"date", bad.Date,
		)

		if a.opts.DryRun {
			a.logger.Info("DRY RUN: would repoint transfer payee", "transaction", keep.ID, "account", destAccount)
			if keep.Category != "" {
				a.logger.Info("DRY RUN: would clear category", "transaction", keep.ID)
			}
			if a.opts.DeleteDuplicate && drop.ID != keep.ID {
				a.logger.Info("DRY RUN: would delete duplicate", "transaction", drop.ID)
			}
			continue
		}

		payeeID, err := a.resolver.TransferPayeeID(ctx, destAccount)
		if err != nil {
			a.logger.Warn("Self-transfer repair failed", "transaction", keep.ID, "error", err)
			continue
		}
		update := actual.TransactionUpdate{Payee: payeeID}
		if keep.Category != "" {
			update.ClearCategory = true
		}
		if err := a.store.UpdateTransaction(ctx, keep.ID, update); err != nil {
			a.logger.Warn("Self-transfer repair failed", "transaction", keep.ID, "error", err)
			continue
		}
		if a.opts.DeleteDuplicate && drop.ID != keep.ID {
			// Best effort, no retry here.
			if err := a.store.DeleteTransaction(ctx, drop.ID); err != nil {
				a.logger.Warn("Delete failed for duplicate", "transaction", drop.ID, "error", err)
			}
		}
		a.used[keep.ID] = true
		a.used[drop.ID] = true
		a.repaired++
	}
}

// alignLinkedPairs walks transactions that carry a transfer_id. When the
// counterpart exists but the payee does not reference its account, the
// payee is realigned; when the counterpart is missing but the payee
// already designates a transfer account, the same assignment is re-applied
// so the store re-establishes the link.
func (a *Auditor) alignLinkedPairs(ctx context.Context, txns []actual.Transaction) {
	byID := make(map[string]actual.Transaction, len(txns))
	for _, t := range txns {
		byID[t.ID] = t
	}

	for _, tx := range txns {
		if a.repaired >= a.opts.MaxRepairsPerRun {
			return
		}
		if tx.IsSplit() || !tx.IsTransfer() || a.used[tx.ID] {
			continue
		}
		if a.opts.ClearedOnly && !tx.Cleared {
			continue
		}
		if a.opts.SkipReconciled && tx.Reconciled {
			continue
		}

		other, otherExists := byID[tx.TransferID]
		var payee actual.Payee
		hasPayee := false
		if tx.Payee != "" {
			payee, hasPayee = a.payees[tx.Payee]
		}

		switch {
		case otherExists && (!hasPayee || payee.TransferAcct != other.Account):
			a.logger.Info("Aligning transfer payee on linked pair",
				"from", a.accountName(tx.Account),
				"to", a.accountName(other.Account),
				"date", tx.Date,
			)
			a.applyTransferPayee(ctx, tx, other.Account)
		case !otherExists && hasPayee && payee.TransferAcct != "":
			a.logger.Info("Relinking orphaned transfer",
				"from", a.accountName(tx.Account),
				"to", a.accountName(payee.TransferAcct),
				"date", tx.Date,
			)
			a.applyTransferPayee(ctx, tx, payee.TransferAcct)
		}
	}
}

// applyTransferPayee points tx at the transfer payee for destAccount and
// clears any category, honoring dry-run mode.
func (a *Auditor) applyTransferPayee(ctx context.Context, tx actual.Transaction, destAccount string) {
	if a.opts.DryRun {
		a.logger.Info("DRY RUN: would set transfer payee", "transaction", tx.ID, "account", destAccount)
		return
	}
	payeeID, err := a.resolver.TransferPayeeID(ctx, destAccount)
	if err != nil {
		a.logger.Warn("Failed to align transfer payee", "transaction", tx.ID, "error", err)
		return
	}
	update := actual.TransactionUpdate{Payee: payeeID}
	if tx.Category != "" {
		update.ClearCategory = true
	}
	if err := a.store.UpdateTransaction(ctx, tx.ID, update); err != nil {
		a.logger.Warn("Failed to align transfer payee", "transaction", tx.ID, "error", err)
		return
	}
	a.used[tx.ID] = true
	a.repaired++
}

// clearTransferCategories clears the category on valid transfers (payee
// targeting a different account) that still carry one, skipping anything
// repaired by the earlier passes.
func (a *Auditor) clearTransferCategories(ctx context.Context, txns []actual.Transaction) {
	for _, tx := range txns {
		if !a.passesFilters(tx) || tx.Category == "" || tx.Payee == "" {
			continue
		}
		p, ok := a.payees[tx.Payee]
		if !ok || p.TransferAcct == "" || p.TransferAcct == tx.Account {
			continue
		}
		if a.used[tx.ID] {
			continue
		}
		if a.capReached() {
			return
		}

		a.logger.Info("Clearing category on transfer",
			"from", a.accountName(tx.Account),
			"to", a.accountName(p.TransferAcct),
			"date", tx.Date,
		)
		if a.opts.DryRun {
			a.logger.Info("DRY RUN: would clear category", "transaction", tx.ID)
			continue
		}
		if err := a.store.UpdateTransaction(ctx, tx.ID, actual.TransactionUpdate{ClearCategory: true}); err != nil {
			a.logger.Warn("Failed to clear category", "transaction", tx.ID, "error", err)
			continue
		}
		a.used[tx.ID] = true
		a.repaired++
	}
}

func (a *Auditor) accountName(id string) string {
	if acct, ok := a.accounts[id]; ok && acct.Name != "" {
		return acct.Name
	}
	return id
}

func groupByAmount(txns []actual.Transaction) map[int64][]actual.Transaction {
	byAmt := make(map[int64][]actual.Transaction)
	for _, t := range txns {
		byAmt[abs(t.Amount)] = append(byAmt[abs(t.Amount)], t)
	}
	return byAmt
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
