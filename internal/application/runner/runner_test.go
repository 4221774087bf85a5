package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/config"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

func testConfig() *config.Config {
	cfg := config.LoadFromEnv()
	cfg.Link.MinScore = 0
	cfg.Link.DryRun = false
	cfg.Repair.DryRun = false
	return cfg
}

func TestLinkOnce_LinksAndRecordsRun(t *testing.T) {
	// Arrange
	store := actual.NewMockStore()
	store.AccountList = []actual.Account{
		{ID: "acc-1", Name: "Checking"},
		{ID: "acc-2", Name: "Savings"},
	}
	store.AddTransactions(
		actual.Transaction{ID: "out-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true},
		actual.Transaction{ID: "inc-1", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true},
	)
	repo := storage.NewMockRepository()
	r := New(testConfig(), store, repo, nil)
	r.now = func() time.Time { return testNow }

	// Act
	linked, err := r.LinkOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, linked)
	assert.Equal(t, []string{"inc-1"}, store.Deleted)

	require.NotNil(t, repo.LastStartedRun)
	assert.Equal(t, storage.ModeLink, repo.LastStartedRun.Mode)
	run, err := repo.GetRun(repo.LastStartedRun.ID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, storage.StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Matched)

	records, err := repo.ListLinkRecords(run.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "linked", records[0].Action)
}

func TestLinkOnce_DryRunRecordsPreviews(t *testing.T) {
	store := actual.NewMockStore()
	store.AccountList = []actual.Account{
		{ID: "acc-1", Name: "Checking"},
		{ID: "acc-2", Name: "Savings"},
	}
	store.AddTransactions(
		actual.Transaction{ID: "out-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true},
		actual.Transaction{ID: "inc-1", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true},
	)
	cfg := testConfig()
	cfg.Link.DryRun = true
	repo := storage.NewMockRepository()
	r := New(cfg, store, repo, nil)
	r.now = func() time.Time { return testNow }

	linked, err := r.LinkOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, linked)
	assert.Empty(t, store.Deleted)
	assert.Empty(t, store.Updates)

	records, err := repo.ListLinkRecords(repo.LastStartedRun.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "previewed", records[0].Action)
}

func TestLinkOnce_FailedAccountFetchIsSkipped(t *testing.T) {
	store := actual.NewMockStore()
	store.AccountList = []actual.Account{
		{ID: "acc-1", Name: "Checking"},
		{ID: "acc-2", Name: "Savings"},
	}
	store.TransactionsErr["acc-1"] = assert.AnError
	store.AddTransactions(
		actual.Transaction{ID: "inc-1", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true},
	)
	r := New(testConfig(), store, storage.NewMockRepository(), nil)
	r.now = func() time.Time { return testNow }

	linked, err := r.LinkOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, linked)
}

func TestLinkOnce_AccountsFetchFailureIsFatal(t *testing.T) {
	store := actual.NewMockStore()
	store.AccountsErr = assert.AnError
	repo := storage.NewMockRepository()
	r := New(testConfig(), store, repo, nil)
	r.now = func() time.Time { return testNow }

	_, err := r.LinkOnce(context.Background())

	require.Error(t, err)
	run, _ := repo.GetRun(repo.LastStartedRun.ID)
	require.NotNil(t, run)
	assert.Equal(t, storage.StatusFailed, run.Status)
}

func TestLinkOnce_BadExplicitDatesFail(t *testing.T) {
	cfg := testConfig()
	cfg.Link.StartDate = "garbage"
	r := New(cfg, actual.NewMockStore(), storage.NewMockRepository(), nil)
	r.now = func() time.Time { return testNow }

	_, err := r.LinkOnce(context.Background())

	assert.Error(t, err)
}

func TestLinkOnce_HonorsIncludeAccounts(t *testing.T) {
	store := actual.NewMockStore()
	store.AccountList = []actual.Account{
		{ID: "acc-1", Name: "Checking"},
		{ID: "acc-2", Name: "Savings"},
	}
	store.AddTransactions(
		actual.Transaction{ID: "out-1", Account: "acc-1", Amount: -1000, Date: "2025-10-10", Cleared: true},
		actual.Transaction{ID: "inc-1", Account: "acc-2", Amount: 1000, Date: "2025-10-10", Cleared: true},
	)
	cfg := testConfig()
	cfg.Link.IncludeAccounts = []string{"Checking"}
	r := New(cfg, store, storage.NewMockRepository(), nil)
	r.now = func() time.Time { return testNow }

	linked, err := r.LinkOnce(context.Background())

	// Only the outgoing account is fetched, so there is nothing to pair.
	require.NoError(t, err)
	assert.Equal(t, 0, linked)
}

func TestRepairOnce_RepairsAndRecordsRun(t *testing.T) {
	store := actual.NewMockStore()
	store.AccountList = []actual.Account{
		{ID: "acc-1", Name: "Checking"},
		{ID: "acc-2", Name: "Savings"},
	}
	store.PayeeList = []actual.Payee{
		{ID: "p-1", TransferAcct: "acc-1"},
		{ID: "p-2", TransferAcct: "acc-2"},
	}
	store.AddTransactions(
		actual.Transaction{ID: "bad", Account: "acc-1", Amount: -2500, Date: "2025-10-10", Cleared: true, Payee: "p-1"},
		actual.Transaction{ID: "good", Account: "acc-2", Amount: 2500, Date: "2025-10-10", Cleared: true},
	)
	repo := storage.NewMockRepository()
	r := New(testConfig(), store, repo, nil)
	r.now = func() time.Time { return testNow }

	repaired, err := r.RepairOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	require.NotNil(t, repo.LastStartedRun)
	assert.Equal(t, storage.ModeRepair, repo.LastStartedRun.Mode)
	run, err := repo.GetRun(repo.LastStartedRun.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Matched)
}

func TestRunJob_SecondCallWhileRunningIsQueued(t *testing.T) {
	r := New(testConfig(), actual.NewMockStore(), nil, nil)
	r.now = func() time.Time { return testNow }

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	count, err := r.RunJob(context.Background(), storage.ModeLink)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	r.mu.Lock()
	assert.Equal(t, storage.ModeLink, r.pending)
	r.mu.Unlock()
}
