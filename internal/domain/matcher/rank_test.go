package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

func TestRank_PrefersSameDayOverScore(t *testing.T) {
	// Arrange
	ref := actual.Transaction{ID: "out", Date: "2025-10-10", Description: "transfer savings account"}
	sameDayNoText := actual.Transaction{ID: "same-day", Date: "2025-10-10"}
	nextDayPerfectText := actual.Transaction{ID: "next-day", Date: "2025-10-11", Description: "transfer savings account"}

	// Act
	best, tied := Rank(ref, []actual.Transaction{nextDayPerfectText, sameDayNoText})

	// Assert
	assert.Equal(t, "same-day", best.Tx.ID)
	assert.True(t, best.SameDay)
	assert.Len(t, tied, 1)
}

func TestRank_ScoreBreaksSameDayTies(t *testing.T) {
	ref := actual.Transaction{ID: "out", Date: "2025-10-10", Description: "transfer savings account"}
	strong := actual.Transaction{ID: "strong", Date: "2025-10-10", Description: "transfer savings account"}
	weak := actual.Transaction{ID: "weak", Date: "2025-10-10", Description: "grocery store"}

	best, tied := Rank(ref, []actual.Transaction{weak, strong})

	assert.Equal(t, "strong", best.Tx.ID)
	assert.Len(t, tied, 1)
}

func TestRank_ExactTieReturnsFullSet(t *testing.T) {
	// Two candidates with identical (sameDay, score) tie, even at score 1.
	ref := actual.Transaction{ID: "out", Date: "2025-10-10", Description: "transfer savings"}
	c1 := actual.Transaction{ID: "c1", Date: "2025-10-10", Description: "transfer savings"}
	c2 := actual.Transaction{ID: "c2", Date: "2025-10-10", Description: "transfer savings"}

	best, tied := Rank(ref, []actual.Transaction{c1, c2})

	require.Len(t, tied, 2)
	assert.Equal(t, 1.0, best.Score)
}

func TestRank_SingleCandidate(t *testing.T) {
	ref := actual.Transaction{ID: "out", Date: "2025-10-10"}
	only := actual.Transaction{ID: "only", Date: "2025-10-12"}

	best, tied := Rank(ref, []actual.Transaction{only})

	assert.Equal(t, "only", best.Tx.ID)
	assert.False(t, best.SameDay)
	assert.Len(t, tied, 1)
}
