package linker

import (
	"strings"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// noteSummary builds the one-line transfer summary appended to a kept
// transaction: the counterpart account (name when known, id otherwise),
// its date, and an optional reference to its first descriptive field.
func noteSummary(drop actual.Transaction, counterpartName string) string {
	target := counterpartName
	if target == "" {
		target = drop.Account
	}
	summary := "Transfer matched with " + target + " on " + drop.Date
	for _, ref := range []string{drop.Description, drop.ImportedDescription, drop.ImportedPayee} {
		if ref != "" {
			summary += " (ref: " + ref + ")"
			break
		}
	}
	return summary
}

// MergedNotes returns the kept transaction's notes with the transfer
// summary appended. Idempotent: when the existing notes already contain
// the summary (case-insensitive) they are returned unchanged.
func MergedNotes(keep, drop actual.Transaction, counterpartName string) string {
	summary := noteSummary(drop, counterpartName)
	if keep.Notes == "" {
		return summary
	}
	if strings.Contains(strings.ToLower(keep.Notes), strings.ToLower(summary)) {
		return keep.Notes
	}
	return keep.Notes + " | " + summary
}
