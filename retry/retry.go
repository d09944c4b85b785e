// Package retry implements bounded exponential backoff for transient
// backend failures.
package retry

import (
	"context"
	"errors"
	"time"

	"docvector/types"
)

const baseDelay = 200 * time.Millisecond

// Do runs fn up to maxAttempts times, sleeping 200ms, 400ms, 800ms... between
// attempts. Only types.ErrUnavailable is retried; configuration and caller
// errors surface immediately.
func Do(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, types.ErrUnavailable) {
			return err
		}
	}
	return err
}
