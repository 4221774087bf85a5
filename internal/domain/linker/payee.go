package linker

import (
	"context"
	"fmt"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// PayeeResolver finds or creates the transfer payee for a destination
// account. Creation is idempotent within a run: once a payee exists for a
// destination, later calls reuse it from the cache instead of creating a
// second one.
type PayeeResolver struct {
	store actual.Store
	cache map[string]string // destination account id -> payee id
}

// NewPayeeResolver creates a resolver backed by the given store.
func NewPayeeResolver(store actual.Store) *PayeeResolver {
	return &PayeeResolver{
		store: store,
		cache: make(map[string]string),
	}
}

// TransferPayeeID returns the id of the transfer payee whose target is the
// destination account, creating one with an empty name if none exists.
func (r *PayeeResolver) TransferPayeeID(ctx context.Context, destAccountID string) (string, error) {
	if id, ok := r.cache[destAccountID]; ok {
		return id, nil
	}
	payees, err := r.store.Payees(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve transfer payee: %w", err)
	}
	for _, p := range payees {
		if p.TransferAcct == destAccountID {
			r.cache[destAccountID] = p.ID
			return p.ID, nil
		}
	}
	id, err := r.store.CreatePayee(ctx, actual.Payee{Name: "", TransferAcct: destAccountID})
	if err != nil {
		return "", fmt.Errorf("create transfer payee: %w", err)
	}
	r.cache[destAccountID] = id
	return id, nil
}
