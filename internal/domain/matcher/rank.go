package matcher

import (
	"sort"

	"github.com/rjlee/actual-tx-linker/internal/actual"
	"github.com/rjlee/actual-tx-linker/internal/domain/text"
)

// Ranked is one scored candidate for an outgoing transaction.
type Ranked struct {
	Tx      actual.Transaction
	Score   float64
	SameDay bool
}

// rankBefore is the total order used for candidate ranking: same-day
// first, then score descending.
func rankBefore(a, b Ranked) bool {
	if a.SameDay != b.SameDay {
		return a.SameDay
	}
	return a.Score > b.Score
}

// Rank scores every candidate against the reference transaction and
// returns the winner together with the full set tied for top rank (the
// winner included). Two candidates tie only when both their same-day flag
// and their score are exactly equal; callers treat a tie set larger than
// one as ambiguous.
//
// Rank panics if cands is empty; callers check for candidates first.
func Rank(ref actual.Transaction, cands []actual.Transaction) (Ranked, []Ranked) {
	refText := text.ForTransaction(ref)
	ranked := make([]Ranked, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, Ranked{
			Tx:      c,
			Score:   text.Similarity(refText, text.ForTransaction(c)),
			SameDay: actual.SameDay(ref.Date, c.Date),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return rankBefore(ranked[i], ranked[j]) })

	best := ranked[0]
	tied := make([]Ranked, 0, 1)
	for _, r := range ranked {
		if r.SameDay == best.SameDay && r.Score == best.Score {
			tied = append(tied, r)
		}
	}
	return best, tied
}
