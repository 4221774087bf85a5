package actual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ClientConfig holds connection settings for an Actual Budget server.
type ClientConfig struct {
	ServerURL          string
	Password           string
	SyncID             string
	EncryptionPassword string
	Timeout            time.Duration
}

// Client talks to an Actual Budget server over its HTTP API. It implements
// Store. Connectivity retry/backoff is handled by the underlying
// retryablehttp transport; the linker core never retries reads itself.
//
// A Client is an explicit session: callers Open it once, reuse the handle
// across runs, and Close it when done. The budget download happens at most
// once per session.
type Client struct {
	cfg     ClientConfig
	httpc   *retryablehttp.Client
	baseURL string
	logger  *slog.Logger

	mu         sync.Mutex
	downloaded bool
}

var _ Store = (*Client)(nil)

// NewClient creates a client for the given server. The returned client is
// not connected until Open is called.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.ServerURL == "" || cfg.Password == "" || cfg.SyncID == "" {
		return nil, fmt.Errorf("actual: server_url, password and sync_id are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpc := retryablehttp.NewClient()
	httpc.RetryMax = 3
	httpc.RetryWaitMin = 500 * time.Millisecond
	httpc.RetryWaitMax = 5 * time.Second
	httpc.HTTPClient.Timeout = cfg.Timeout
	httpc.Logger = nil // request logging goes through slog below

	return &Client{
		cfg:     cfg,
		httpc:   httpc,
		baseURL: fmt.Sprintf("%s/v1/budgets/%s", cfg.ServerURL, url.PathEscape(cfg.SyncID)),
		logger:  logger,
	}, nil
}

// Open validates the connection and downloads the budget file on the
// server side. The download is requested once per session; later calls
// reuse the already-downloaded budget.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	downloaded := c.downloaded
	c.mu.Unlock()

	if !downloaded {
		c.logger.Info("Downloading budget", "sync_id", c.cfg.SyncID)
		if err := c.do(ctx, http.MethodPost, "/download", nil, nil); err != nil {
			return fmt.Errorf("download budget: %w", err)
		}
		c.mu.Lock()
		c.downloaded = true
		c.mu.Unlock()
	} else {
		c.logger.Debug("Budget already downloaded this session")
	}

	if err := c.Sync(ctx); err != nil {
		c.logger.Warn("Initial sync failed", "error", err)
	}
	return nil
}

// Close releases the session. The next Open downloads the budget again.
func (c *Client) Close() error {
	c.mu.Lock()
	c.downloaded = false
	c.mu.Unlock()
	c.httpc.HTTPClient.CloseIdleConnections()
	return nil
}

// Accounts lists all budget accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var out struct {
		Data []Account `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, &out); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out.Data, nil
}

// Payees lists all payees.
func (c *Client) Payees(ctx context.Context) ([]Payee, error) {
	var out struct {
		Data []Payee `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/payees", nil, &out); err != nil {
		return nil, fmt.Errorf("list payees: %w", err)
	}
	return out.Data, nil
}

// CreatePayee creates a payee and returns its id. The API may answer with
// a bare id or a full payee object.
func (c *Client) CreatePayee(ctx context.Context, p Payee) (string, error) {
	body := map[string]any{"payee": p}
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/payees", body, &out); err != nil {
		return "", fmt.Errorf("create payee: %w", err)
	}

	var id string
	if err := json.Unmarshal(out.Data, &id); err == nil && id != "" {
		return id, nil
	}
	var created Payee
	if err := json.Unmarshal(out.Data, &created); err == nil && created.ID != "" {
		return created.ID, nil
	}
	return "", fmt.Errorf("create payee: unexpected response %s", out.Data)
}

// Transactions lists transactions for one account over an inclusive
// date-only range.
func (c *Client) Transactions(ctx context.Context, accountID, since, until string) ([]Transaction, error) {
	path := fmt.Sprintf("/accounts/%s/transactions?since_date=%s&until_date=%s",
		url.PathEscape(accountID), url.QueryEscape(since), url.QueryEscape(until))
	var out struct {
		Data []Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}
	return out.Data, nil
}

// UpdateTransaction applies a partial update to one transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id string, u TransactionUpdate) error {
	fields := map[string]any{}
	if u.Payee != "" {
		fields["payee"] = u.Payee
	}
	if u.SetNotes {
		fields["notes"] = u.Notes
	}
	if u.ClearCategory {
		fields["category"] = nil
	}
	if len(fields) == 0 {
		return nil
	}
	body := map[string]any{"transaction": fields}
	if err := c.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(id), body, nil); err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Sync asks the server to sync the budget.
func (c *Client) Sync(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/sync", nil, nil); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// do performs one API request, encoding body as JSON when non-nil and
// decoding the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.cfg.Password)
	if c.cfg.EncryptionPassword != "" {
		req.Header.Set("budget-encryption-password", c.cfg.EncryptionPassword)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
