package orchestrator

import (
	"context"
	"time"
)

// DefaultRetryDelay is the polling interval while tabs are being dragged.
const DefaultRetryDelay = 50 * time.Millisecond

// Retry calls fn until it succeeds, fails with an error retryable rejects,
// or ctx ends. Attempts are spaced by delay.
func Retry(ctx context.Context, delay time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	for {
		err := fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
