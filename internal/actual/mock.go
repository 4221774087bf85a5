package actual

import (
	"context"
	"fmt"
	"sync"
)

// MockStore is an in-memory Store implementation for testing. It records
// every mutation so tests can assert on the exact calls made, and supports
// error injection per operation.
type MockStore struct {
	mu sync.Mutex

	AccountList   []Account
	PayeeList     []Payee
	TxnsByAccount map[string][]Transaction

	// Recorded mutations
	Updates       map[string][]TransactionUpdate
	Deleted       []string
	CreatedPayees []Payee
	SyncCalls     int

	// Error injection for testing error paths
	AccountsErr     error
	PayeesErr       error
	CreatePayeeErr  error
	TransactionsErr map[string]error // keyed by account id
	UpdateErr       map[string]error // keyed by transaction id
	DeleteErr       map[string]int   // remaining failures per transaction id
	SyncErr         error

	nextPayee int
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		TxnsByAccount:   make(map[string][]Transaction),
		Updates:         make(map[string][]TransactionUpdate),
		TransactionsErr: make(map[string]error),
		UpdateErr:       make(map[string]error),
		DeleteErr:       make(map[string]int),
	}
}

// AddTransactions registers transactions under their account ids.
func (m *MockStore) AddTransactions(txns ...Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txns {
		m.TxnsByAccount[t.Account] = append(m.TxnsByAccount[t.Account], t)
	}
}

func (m *MockStore) Accounts(_ context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AccountsErr != nil {
		return nil, m.AccountsErr
	}
	return append([]Account(nil), m.AccountList...), nil
}

func (m *MockStore) Payees(_ context.Context) ([]Payee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PayeesErr != nil {
		return nil, m.PayeesErr
	}
	return append([]Payee(nil), m.PayeeList...), nil
}

func (m *MockStore) CreatePayee(_ context.Context, p Payee) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreatePayeeErr != nil {
		return "", m.CreatePayeeErr
	}
	m.nextPayee++
	p.ID = fmt.Sprintf("payee-%d", m.nextPayee)
	m.PayeeList = append(m.PayeeList, p)
	m.CreatedPayees = append(m.CreatedPayees, p)
	return p.ID, nil
}

func (m *MockStore) Transactions(_ context.Context, accountID, _, _ string) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.TransactionsErr[accountID]; err != nil {
		return nil, err
	}
	return append([]Transaction(nil), m.TxnsByAccount[accountID]...), nil
}

func (m *MockStore) UpdateTransaction(_ context.Context, id string, u TransactionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateErr[id]; err != nil {
		return err
	}
	m.Updates[id] = append(m.Updates[id], u)
	return nil
}

func (m *MockStore) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.DeleteErr[id]; n > 0 {
		m.DeleteErr[id] = n - 1
		return fmt.Errorf("injected delete failure for %s", id)
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockStore) Sync(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncCalls++
	return m.SyncErr
}

// UpdateFor returns the single update recorded for a transaction id,
// failing the zero-value contract if there were none or several.
func (m *MockStore) UpdateFor(id string) (TransactionUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Updates[id]) != 1 {
		return TransactionUpdate{}, false
	}
	return m.Updates[id][0], true
}
