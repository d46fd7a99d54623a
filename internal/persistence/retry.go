package persistence

import (
	"context"
	"time"
)

// WithRetry runs fn up to attempts times, sleeping delay between tries.
// Only errors accepted by retryable are retried; anything else returns
// immediately. It is meant for read-side store calls at the access
// boundary; mutations run single-shot so a business operation is never
// re-executed.
func WithRetry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay * time.Duration(attempt)):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) {
			return err
		}
	}
	return err
}
