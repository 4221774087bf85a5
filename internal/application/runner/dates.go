package runner

import (
	"fmt"
	"time"

	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// resolveRange turns the configured lookback or explicit date bounds into
// an inclusive since/until pair of date-only strings. An explicit bound
// overrides the lookback; a missing start defaults to lookback days before
// the end, a missing end defaults to today. A malformed or inverted
// explicit range is the one fatal configuration error of a run.
func resolveRange(lookbackDays int, startDate, endDate string, now time.Time) (since, until string, err error) {
	end := now
	if endDate != "" {
		end, err = actual.ParseDate(endDate)
		if err != nil {
			return "", "", fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
	}
	start := end.AddDate(0, 0, -lookbackDays)
	if startDate != "" {
		start, err = actual.ParseDate(startDate)
		if err != nil {
			return "", "", fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
	}
	if start.After(end) {
		return "", "", fmt.Errorf("start date %s is after end date %s", actual.FormatYMD(start), actual.FormatYMD(end))
	}
	return actual.FormatYMD(start), actual.FormatYMD(end), nil
}
