package text

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Grocery STORE", "grocery store"},
		{"strips punctuation", "ACH*Transfer #1234", "ach transfer 1234"},
		{"collapses whitespace", "  a   lot\tof   space  ", "a lot of space"},
		{"empty", "", ""},
		{"only punctuation", "***---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestTokens_DropsShortWords(t *testing.T) {
	tokens := Tokens("to a big transfer of 42")

	assert.Contains(t, tokens, "big")
	assert.Contains(t, tokens, "transfer")
	assert.NotContains(t, tokens, "to")
	assert.NotContains(t, tokens, "of")
	assert.NotContains(t, tokens, "42")
}

func TestSimilarity(t *testing.T) {
	// Identical token sets
	assert.Equal(t, 1.0, Similarity("transfer savings", "Transfer SAVINGS"))

	// Disjoint token sets
	assert.Equal(t, 0.0, Similarity("grocery store", "payroll deposit"))

	// Partial overlap: {transfer, savings} vs {transfer, checking} = 1/3
	assert.InDelta(t, 1.0/3.0, Similarity("transfer savings", "transfer checking"), 1e-9)

	// Empty or token-less inputs score zero
	assert.Equal(t, 0.0, Similarity("", "transfer"))
	assert.Equal(t, 0.0, Similarity("a of to", "transfer"))
}

func TestForTransaction_ConcatenatesDescriptiveFields(t *testing.T) {
	tx := actual.Transaction{
		Description:   "ACH Transfer",
		ImportedPayee: "My Bank",
		Notes:         "monthly move",
	}

	assert.Equal(t, "ach transfer my bank monthly move", ForTransaction(tx))
	assert.Equal(t, "", ForTransaction(actual.Transaction{}))
}
