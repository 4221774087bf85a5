package repair

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

var repairAccounts = map[string]actual.Account{
	"acc-1": {ID: "acc-1", Name: "Checking"},
	"acc-2": {ID: "acc-2", Name: "Savings"},
}

// repairPayees carries one transfer payee per account plus a regular one.
var repairPayees = []actual.Payee{
	{ID: "p-1", TransferAcct: "acc-1"},
	{ID: "p-2", TransferAcct: "acc-2"},
	{ID: "p-grocery", Name: "Grocery"},
}

func liveOptions() Options {
	opts := DefaultOptions()
	opts.DryRun = false
	return opts
}

func newTestAuditor(store *actual.MockStore, opts Options) *Auditor {
	store.PayeeList = append([]actual.Payee(nil), repairPayees...)
	return NewAuditor(store, repairAccounts, repairPayees, nil, opts)
}

func TestRun_RepairsSelfTransfer(t *testing.T) {
	// Arrange: bad points a transfer payee back at its own account; the
	// true counterpart sits unlinked on the other account.
	store := actual.NewMockStore()
	bad := actual.Transaction{ID: "bad", Account: "acc-1", Amount: -2500, Date: "2025-10-10", Cleared: true, Payee: "p-1", Category: "cat-1"}
	good := actual.Transaction{ID: "good", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true}
	a := newTestAuditor(store, liveOptions())

	// Act
	repaired := a.Run(context.Background(), []actual.Transaction{bad, good})

	// Assert
	assert.Equal(t, 1, repaired)
	update, ok := store.UpdateFor("bad")
	require.True(t, ok)
	assert.Equal(t, "p-2", update.Payee)
	assert.True(t, update.ClearCategory)
	assert.Equal(t, []string{"good"}, store.Deleted)
	assert.Equal(t, 1, store.SyncCalls)
}

func TestRun_SelfTransferAmbiguousSkipped(t *testing.T) {
	store := actual.NewMockStore()
	bad := actual.Transaction{ID: "bad", Account: "acc-1", Amount: -2500, Date: "2025-10-10", Cleared: true, Payee: "p-1"}
	cand1 := actual.Transaction{ID: "cand-1", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true}
	cand2 := actual.Transaction{ID: "cand-2", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{bad, cand1, cand2})

	assert.Equal(t, 0, repaired)
	assert.Empty(t, store.Updates)
	assert.Empty(t, store.Deleted)
}

func TestRun_AlignsMisalignedLinkedPair(t *testing.T) {
	// tx1 is linked to tx2 but its payee does not reference tx2's account.
	store := actual.NewMockStore()
	tx1 := actual.Transaction{ID: "tx-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true, TransferID: "tx-2", Payee: "p-grocery"}
	tx2 := actual.Transaction{ID: "tx-2", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{tx1, tx2})

	assert.Equal(t, 1, repaired)
	update, ok := store.UpdateFor("tx-1")
	require.True(t, ok)
	assert.Equal(t, "p-2", update.Payee)
}

func TestRun_WellAlignedPairUntouched(t *testing.T) {
	store := actual.NewMockStore()
	tx1 := actual.Transaction{ID: "tx-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true, TransferID: "tx-2", Payee: "p-2"}
	tx2 := actual.Transaction{ID: "tx-2", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true, TransferID: "tx-1", Payee: "p-1"}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{tx1, tx2})

	assert.Equal(t, 0, repaired)
	assert.Empty(t, store.Updates)
}

func TestRun_RelinksOrphanedTransfer(t *testing.T) {
	// The counterpart is gone but the payee still designates a transfer
	// account; the same assignment is re-applied.
	store := actual.NewMockStore()
	orphan := actual.Transaction{ID: "orphan", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true, TransferID: "gone", Payee: "p-2", Category: "cat-1"}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{orphan})

	assert.Equal(t, 1, repaired)
	update, ok := store.UpdateFor("orphan")
	require.True(t, ok)
	assert.Equal(t, "p-2", update.Payee)
	assert.True(t, update.ClearCategory)
}

func TestRun_ClearsCategoryOnValidTransfer(t *testing.T) {
	store := actual.NewMockStore()
	tx := actual.Transaction{ID: "tx-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true, Payee: "p-2", Category: "cat-1"}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{tx})

	assert.Equal(t, 1, repaired)
	update, ok := store.UpdateFor("tx-1")
	require.True(t, ok)
	assert.True(t, update.ClearCategory)
	assert.Empty(t, update.Payee)
}

func TestRun_DryRunReportsZeroAndMutatesNothing(t *testing.T) {
	store := actual.NewMockStore()
	bad := actual.Transaction{ID: "bad", Account: "acc-1", Amount: -2500, Date: "2025-10-10", Cleared: true, Payee: "p-1"}
	good := actual.Transaction{ID: "good", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true}
	opts := liveOptions()
	opts.DryRun = true
	a := newTestAuditor(store, opts)

	repaired := a.Run(context.Background(), []actual.Transaction{bad, good})

	assert.Equal(t, 0, repaired)
	assert.Empty(t, store.Updates)
	assert.Empty(t, store.Deleted)
	assert.Empty(t, store.CreatedPayees)
}

func TestRun_CapSharedAcrossPasses(t *testing.T) {
	store := actual.NewMockStore()
	tx1 := actual.Transaction{ID: "tx-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true, Payee: "p-2", Category: "cat-1"}
	tx2 := actual.Transaction{ID: "tx-2", Account: "acc-1", Amount: -2000, Date: "2025-10-10", Cleared: true, Payee: "p-2", Category: "cat-2"}
	opts := liveOptions()
	opts.MaxRepairsPerRun = 1
	a := newTestAuditor(store, opts)

	repaired := a.Run(context.Background(), []actual.Transaction{tx1, tx2})

	assert.Equal(t, 1, repaired)
	assert.Len(t, store.Updates, 1)
}

func TestRun_EarlierPassClaimsTransaction(t *testing.T) {
	// The self-transfer pass repairs bad and consumes the counterpart, so
	// the category pass must not touch either again.
	store := actual.NewMockStore()
	bad := actual.Transaction{ID: "bad", Account: "acc-1", Amount: -2500, Date: "2025-10-10", Cleared: true, Payee: "p-1", Category: "cat-1"}
	good := actual.Transaction{ID: "good", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true}
	a := newTestAuditor(store, liveOptions())

	repaired := a.Run(context.Background(), []actual.Transaction{bad, good})

	assert.Equal(t, 1, repaired)
	assert.Len(t, store.Updates, 1)
}
