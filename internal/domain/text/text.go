// Package text provides the normalization and similarity scoring used to
// compare transaction descriptions. All functions are pure.
package text

import (
	"strings"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// Normalize lowercases s, replaces every character outside [a-z0-9 ] with
// a space, and collapses runs of whitespace to a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	space := true // leading spaces are dropped
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokens returns the set of normalized words of length >= 3. Shorter
// tokens are noise and excluded.
func Tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Split(Normalize(s), " ") {
		if len(w) >= 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

// ForTransaction concatenates the descriptive fields of a transaction and
// normalizes the result. Absent fields are skipped.
func ForTransaction(t actual.Transaction) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{t.Description, t.ImportedDescription, t.ImportedPayee, t.Notes} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return Normalize(strings.Join(parts, " "))
}

// Similarity is the Jaccard similarity of the token sets of a and b.
// It returns 0 when either input is empty or yields no tokens.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ta := Tokens(a)
	tb := Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}
