package matcher

import (
	"log/slog"
	"strings"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// AccountMatchesToken reports whether a token designates the account by id
// or name, case-insensitively.
func AccountMatchesToken(a actual.Account, token string) bool {
	t := strings.ToLower(token)
	if strings.ToLower(a.ID) == t {
		return true
	}
	return a.Name != "" && strings.ToLower(a.Name) == t
}

// FilterAccounts applies the include/exclude token lists to the fetched
// accounts. Include tokens that match no account are logged as warnings so
// a typo does not silently empty the run.
func FilterAccounts(accounts []actual.Account, include, exclude []string, logger *slog.Logger) []actual.Account {
	if logger == nil {
		logger = slog.Default()
	}
	eligible := accounts
	if len(include) > 0 {
		eligible = nil
		for _, a := range accounts {
			for _, token := range include {
				if AccountMatchesToken(a, token) {
					eligible = append(eligible, a)
					break
				}
			}
		}
		for _, token := range include {
			matched := false
			for _, a := range accounts {
				if AccountMatchesToken(a, token) {
					matched = true
					break
				}
			}
			if !matched {
				logger.Warn("Include token did not match any account", "token", token)
			}
		}
	}
	if len(exclude) > 0 {
		var kept []actual.Account
		for _, a := range eligible {
			excluded := false
			for _, token := range exclude {
				if AccountMatchesToken(a, token) {
					excluded = true
					break
				}
			}
			if !excluded {
				kept = append(kept, a)
			}
		}
		eligible = kept
	}
	return eligible
}
