// Package retry runs an operation a bounded number of times.
package retry

import (
	"context"
	"time"
)

// Policy describes how many attempts to make and how long to wait between them.
// Attempts are numbered from 1.
type Policy struct {
	Attempts  int
	Backoff   func(attempt int, err error) time.Duration
	Retryable func(err error) bool
	// OnRetry is called before sleeping for a retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned as-is.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			return err
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt, err)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return err
}

// Linear returns a backoff of attempt*unit.
func Linear(unit time.Duration) func(int, error) time.Duration {
	return func(attempt int, _ error) time.Duration {
		return time.Duration(attempt) * unit
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
