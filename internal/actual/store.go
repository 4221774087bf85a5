package actual

import "context"

// Store is the abstract data-store interface the linker core requires.
// The production implementation is Client; tests use MockStore.
type Store interface {
	// Accounts lists all budget accounts.
	Accounts(ctx context.Context) ([]Account, error)

	// Payees lists all payees, including transfer payees.
	Payees(ctx context.Context) ([]Payee, error)

	// CreatePayee creates a payee and returns its id.
	CreatePayee(ctx context.Context, p Payee) (string, error)

	// Transactions lists transactions for one account over an inclusive
	// date-only range (YYYY-MM-DD).
	Transactions(ctx context.Context, accountID, since, until string) ([]Transaction, error)

	// UpdateTransaction applies a partial update to one transaction.
	UpdateTransaction(ctx context.Context, id string, u TransactionUpdate) error

	// DeleteTransaction removes a transaction.
	DeleteTransaction(ctx context.Context, id string) error

	// Sync triggers a server sync. Best effort: callers log failures and
	// continue.
	Sync(ctx context.Context) error
}
