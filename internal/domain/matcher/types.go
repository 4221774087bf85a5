package matcher

import (
	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// Config holds matching configuration.
type Config struct {
	WindowHours    int     // max hours between the two sides of a pair
	MinScore       float64 // minimum text similarity to accept a match
	ClearedOnly    bool    // only consider cleared transactions
	SkipReconciled bool    // never touch reconciled transactions
	PairMultiples  bool    // deterministically pair equal-sized ambiguous groups
}

// DefaultConfig returns the defaults used by the link run.
func DefaultConfig() Config {
	return Config{
		WindowHours:    72,
		MinScore:       0.2,
		ClearedOnly:    true,
		SkipReconciled: true,
	}
}

// Eligible reports whether a transaction may enter the candidate pools:
// not already linked, not part of a split, and passing the cleared and
// reconciled filters. Zero-amount transactions are handled by the
// partition step, which puts them in neither pool.
func (c Config) Eligible(t actual.Transaction) bool {
	if t.IsTransfer() || t.IsSplit() {
		return false
	}
	return c.PassesFlags(t)
}

// PassesFlags applies only the cleared/reconciled filters.
func (c Config) PassesFlags(t actual.Transaction) bool {
	if c.ClearedOnly && !t.Cleared {
		return false
	}
	if c.SkipReconciled && t.Reconciled {
		return false
	}
	return true
}

// Match pairs an outgoing transaction with its incoming counterpart. It is
// ephemeral: created during resolution and consumed by the link applier,
// never persisted.
type Match struct {
	Out     actual.Transaction
	Inc     actual.Transaction
	Score   float64
	SameDay bool
}

// Stats counts the outcomes of one matching pass. Per-item outcomes are
// observable here rather than through errors.
type Stats struct {
	TotalOutgoing       int
	TotalIncoming       int
	OutgoingConsidered  int
	IncomingConsidered  int
	OutgoingFiltered    int
	IncomingFiltered    int
	CandidatesEvaluated int
	NoCandidateInWindow int
	BelowScore          int
	Ambiguous           int
	Matched             int
	Failures            int
}
