package actual

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		ServerURL: srv.URL,
		Password:  "secret",
		SyncID:    "budget-1",
	}, nil)
	require.NoError(t, err)
	// No connectivity retries in tests.
	c.httpc.RetryMax = 0
	return c, srv
}

func TestNewClient_RequiresConnectionSettings(t *testing.T) {
	_, err := NewClient(ClientConfig{ServerURL: "http://x"}, nil)

	assert.Error(t, err)
}

func TestAccounts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/budgets/budget-1/accounts", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"data":[{"id":"acc-1","name":"Checking"}]}`))
	})

	accounts, err := c.Accounts(context.Background())

	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)
	assert.Equal(t, "Checking", accounts[0].Name)
}

func TestTransactions_SendsDateRange(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/budgets/budget-1/accounts/acc-1/transactions", r.URL.Path)
		assert.Equal(t, "2025-10-01", r.URL.Query().Get("since_date"))
		assert.Equal(t, "2025-10-15", r.URL.Query().Get("until_date"))
		_, _ = w.Write([]byte(`{"data":[{"id":"tx-1","account":"acc-1","amount":-1000,"date":"2025-10-10"}]}`))
	})

	txns, err := c.Transactions(context.Background(), "acc-1", "2025-10-01", "2025-10-15")

	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(-1000), txns[0].Amount)
}

func TestCreatePayee_BareIDResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Payee Payee `json:"payee"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acc-2", body.Payee.TransferAcct)
		_, _ = w.Write([]byte(`{"data":"payee-9"}`))
	})

	id, err := c.CreatePayee(context.Background(), Payee{TransferAcct: "acc-2"})

	require.NoError(t, err)
	assert.Equal(t, "payee-9", id)
}

func TestCreatePayee_ObjectResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"payee-9","transfer_acct":"acc-2"}}`))
	})

	id, err := c.CreatePayee(context.Background(), Payee{TransferAcct: "acc-2"})

	require.NoError(t, err)
	assert.Equal(t, "payee-9", id)
}

func TestUpdateTransaction_BuildsPartialPayload(t *testing.T) {
	var payload map[string]map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/budgets/budget-1/transactions/tx-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{}`))
	})

	err := c.UpdateTransaction(context.Background(), "tx-1", TransactionUpdate{
		Payee:         "payee-9",
		Notes:         "merged",
		SetNotes:      true,
		ClearCategory: true,
	})

	require.NoError(t, err)
	fields := payload["transaction"]
	assert.Equal(t, "payee-9", fields["payee"])
	assert.Equal(t, "merged", fields["notes"])
	category, present := fields["category"]
	assert.True(t, present)
	assert.Nil(t, category)
}

func TestUpdateTransaction_EmptyUpdateSkipsRequest(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	err := c.UpdateTransaction(context.Background(), "tx-1", TransactionUpdate{})

	require.NoError(t, err)
	assert.False(t, called)
}

func TestDeleteTransaction_ErrorIncludesBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`budget is locked`))
	})

	err := c.DeleteTransaction(context.Background(), "tx-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "budget is locked")
}

func TestOpen_DownloadsOncePerSession(t *testing.T) {
	downloads := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/budgets/budget-1/download" {
			downloads++
		}
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	require.NoError(t, c.Open(ctx))
	require.NoError(t, c.Open(ctx))
	assert.Equal(t, 1, downloads)

	// Close resets the session; the next Open downloads again.
	require.NoError(t, c.Close())
	require.NoError(t, c.Open(ctx))
	assert.Equal(t, 2, downloads)
}
