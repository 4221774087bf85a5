// Package matcher finds the two sides of an inter-account transfer among
// independently imported transactions.
//
// Matching is strict: the candidate must carry the opposite sign and the
// exact absolute amount, live in a different account, and fall within the
// configured time window. Ranking prefers same-day candidates, then text
// similarity; a tie at the top is ambiguous and is skipped unless
// deterministic pairing resolves it.
package matcher

import (
	"log/slog"
	"sort"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// Matcher resolves transfer matches over a fetched transaction snapshot.
type Matcher struct {
	config Config
	logger *slog.Logger
}

// NewMatcher creates a matcher with the given config.
func NewMatcher(config Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{config: config, logger: logger}
}

// groupKey identifies one ambiguous group: outgoing transactions of the
// same absolute amount and date whose top candidates all live in one
// incoming account.
type groupKey struct {
	amount  int64
	date    string
	account string
}

// ambiguousGroup accumulates the outgoing side and the distinct tied
// incoming side of one group. Ephemeral, consumed only when deterministic
// pairing is enabled.
type ambiguousGroup struct {
	outs []actual.Transaction
	incs map[string]actual.Transaction
}

// FindMatches partitions the snapshot, resolves at most one incoming
// counterpart per outgoing transaction, and returns the de-duplicated
// matches together with counters for every outcome.
func (m *Matcher) FindMatches(txns []actual.Transaction, accountsByID map[string]actual.Account) ([]Match, Stats) {
	outgoing, incoming, stats := m.partition(txns)
	incomingByAmt := groupByAmount(incoming)

	var matches []Match
	groups := make(map[groupKey]*ambiguousGroup)
	var groupOrder []groupKey

	for _, out := range outgoing {
		pool := incomingByAmt[abs(out.Amount)]
		if len(pool) == 0 {
			continue
		}
		cands := make([]actual.Transaction, 0, len(pool))
		for _, cand := range pool {
			if cand.Account != out.Account && actual.WithinWindow(out.Date, cand.Date, m.config.WindowHours) {
				cands = append(cands, cand)
			}
		}
		if len(cands) == 0 {
			stats.NoCandidateInWindow++
			m.logger.Debug("Skip: no candidate within window",
				"account", accountName(accountsByID, out.Account),
				"amount", actual.AmountUnits(out.Amount),
				"date", out.Date,
			)
			continue
		}

		stats.CandidatesEvaluated += len(cands)
		best, tied := Rank(out, cands)

		if len(tied) > 1 && best.Score >= m.config.MinScore {
			if !m.config.PairMultiples {
				stats.Ambiguous++
				m.logger.Debug("Skip ambiguous match",
					"account", accountName(accountsByID, out.Account),
					"amount", actual.AmountUnits(out.Amount),
					"date", out.Date,
					"tied", len(tied),
				)
				continue
			}
			// Grouping only applies when every tied candidate lives in the
			// same incoming account; mixed-account ties stay ambiguous.
			account := tied[0].Tx.Account
			mixed := false
			for _, r := range tied[1:] {
				if r.Tx.Account != account {
					mixed = true
					break
				}
			}
			if mixed {
				stats.Ambiguous++
				m.logger.Debug("Skip ambiguous match across accounts",
					"account", accountName(accountsByID, out.Account),
					"amount", actual.AmountUnits(out.Amount),
					"date", out.Date,
				)
				continue
			}
			key := groupKey{amount: abs(out.Amount), date: out.Date, account: account}
			g, ok := groups[key]
			if !ok {
				g = &ambiguousGroup{incs: make(map[string]actual.Transaction)}
				groups[key] = g
				groupOrder = append(groupOrder, key)
			}
			g.outs = append(g.outs, out)
			for _, r := range tied {
				g.incs[r.Tx.ID] = r.Tx
			}
			continue
		}

		if best.Score >= m.config.MinScore {
			matches = append(matches, Match{Out: out, Inc: best.Tx, Score: best.Score, SameDay: best.SameDay})
		} else {
			stats.BelowScore++
			m.logger.Debug("Skip below-score match",
				"account", accountName(accountsByID, out.Account),
				"amount", actual.AmountUnits(out.Amount),
				"date", out.Date,
				"top_score", best.Score,
			)
		}
	}

	matches = append(matches, m.resolveGroups(groups, groupOrder, &stats)...)

	return dedupe(matches), stats
}

// resolveGroups pairs each equal-sized ambiguous group position-by-position
// after sorting both sides by id. Pairing by construction implies same date
// and amount, so emitted matches carry score 1 and the same-day flag.
func (m *Matcher) resolveGroups(groups map[groupKey]*ambiguousGroup, order []groupKey, stats *Stats) []Match {
	var matches []Match
	for _, key := range order {
		g := groups[key]
		if len(g.outs) != len(g.incs) {
			stats.Ambiguous += len(g.outs)
			m.logger.Debug("Skip unresolved ambiguous group",
				"amount", actual.AmountUnits(key.amount),
				"date", key.date,
				"outgoing", len(g.outs),
				"incoming", len(g.incs),
			)
			continue
		}
		outs := append([]actual.Transaction(nil), g.outs...)
		sort.Slice(outs, func(i, j int) bool { return outs[i].ID < outs[j].ID })
		incs := make([]actual.Transaction, 0, len(g.incs))
		for _, t := range g.incs {
			incs = append(incs, t)
		}
		sort.Slice(incs, func(i, j int) bool { return incs[i].ID < incs[j].ID })
		for i := range outs {
			matches = append(matches, Match{Out: outs[i], Inc: incs[i], Score: 1, SameDay: true})
		}
	}
	return matches
}

// dedupe keeps matches in discovery order, discarding any later match that
// reuses an already consumed transaction id on either side.
func dedupe(matches []Match) []Match {
	usedOut := make(map[string]bool, len(matches))
	usedInc := make(map[string]bool, len(matches))
	final := make([]Match, 0, len(matches))
	for _, m := range matches {
		if usedOut[m.Out.ID] || usedInc[m.Inc.ID] {
			continue
		}
		usedOut[m.Out.ID] = true
		usedInc[m.Inc.ID] = true
		final = append(final, m)
	}
	return final
}

// partition splits the snapshot into the outgoing and incoming candidate
// pools and records how much each filter removed.
func (m *Matcher) partition(txns []actual.Transaction) (outgoing, incoming []actual.Transaction, stats Stats) {
	for _, t := range txns {
		switch {
		case t.Amount < 0:
			stats.TotalOutgoing++
			if m.config.Eligible(t) {
				outgoing = append(outgoing, t)
			}
		case t.Amount > 0:
			stats.TotalIncoming++
			if m.config.Eligible(t) {
				incoming = append(incoming, t)
			}
		}
	}
	stats.OutgoingConsidered = len(outgoing)
	stats.IncomingConsidered = len(incoming)
	stats.OutgoingFiltered = stats.TotalOutgoing - len(outgoing)
	stats.IncomingFiltered = stats.TotalIncoming - len(incoming)
	return outgoing, incoming, stats
}

// groupByAmount buckets transactions by absolute amount for O(1) candidate
// lookup.
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

func accountName(accounts map[string]actual.Account, id string) string {
	if a, ok := accounts[id]; ok && a.Name != "" {
		return a.Name
	}
	return id
}
