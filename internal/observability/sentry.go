// Package observability wires optional error reporting. With no DSN
// configured everything degrades to a no-op.
package observability

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures Sentry when a DSN is set and returns a flush function
// for deferred shutdown.
func Init(dsn string, logger *slog.Logger) func() {
	if dsn == "" {
		return func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.Warn("Sentry init failed", "error", err)
		return func() {}
	}
	return func() {
		sentry.Flush(2 * time.Second)
	}
}

// CaptureError reports a run failure. Safe to call when Init was skipped.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
