// Package retry implements a small bounded-retry policy: a fixed number of
// attempts separated by a fixed delay. It exists for the one external
// mutation that needs it (duplicate deletion); HTTP-level connectivity
// retries belong to the transport.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation up to Attempts times, sleeping Delay between
// attempts.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is
// cancelled. It returns the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
