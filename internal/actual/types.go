// Package actual provides a client for the Actual Budget HTTP API and the
// data types the linker operates on.
//
// Transactions are read-only snapshots: the linker fetches them once per
// run, computes matches in memory, and pushes mutations back through the
// Store interface. Amounts are signed integers in the smallest currency
// unit; a negative amount is an outgoing transaction, a positive amount an
// incoming one.
package actual

import "fmt"

// Account is a budget account.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Payee is a payee record. A non-empty TransferAcct marks this payee as a
// transfer payee: assigning it to a transaction declares the transaction a
// transfer into that account.
type Payee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TransferAcct string `json:"transfer_acct,omitempty"`
}

// Transaction is a single ledger transaction. Optional fields use the zero
// value when absent: Payee, Category and TransferID are empty strings when
// unset, and the free-text fields default to "".
type Transaction struct {
	ID                  string `json:"id"`
	Account             string `json:"account"`
	Amount              int64  `json:"amount"`
	Date                string `json:"date"`
	Cleared             bool   `json:"cleared"`
	Reconciled          bool   `json:"reconciled"`
	Payee               string `json:"payee,omitempty"`
	Category            string `json:"category,omitempty"`
	TransferID          string `json:"transfer_id,omitempty"`
	IsParent            bool   `json:"is_parent,omitempty"`
	IsChild             bool   `json:"is_child,omitempty"`
	Description         string `json:"description,omitempty"`
	ImportedDescription string `json:"imported_description,omitempty"`
	ImportedPayee       string `json:"imported_payee,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// IsTransfer reports whether the transaction is already linked to a
// counterpart.
func (t Transaction) IsTransfer() bool {
	return t.TransferID != ""
}

// IsSplit reports whether the transaction is part of a split.
func (t Transaction) IsSplit() bool {
	return t.IsParent || t.IsChild
}

// TransactionUpdate describes a partial update to a transaction. Only
// fields with their presence flag set (or a non-empty value for Payee) are
// sent to the server.
type TransactionUpdate struct {
	Payee         string // new payee id, applied when non-empty
	Notes         string // replacement notes, applied when SetNotes
	SetNotes      bool
	ClearCategory bool // set category to null
}

// AmountUnits renders a smallest-unit amount as a decimal string with two
// places, e.g. 12345 -> "123.45". Used for log lines only.
func AmountUnits(amount int64) string {
	if amount < 0 {
		amount = -amount
	}
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
