// Package ratelimit gates calls to the completion API with a fixed-window counter.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 50
	DefaultWindow = time.Minute
)

// Limiter admits or rejects one call. A rejected call must not be attempted.
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
}

// WindowCounter counts accepted calls in the current window. The window is
// reset lazily by the first check made after it ends; no timer runs.
type WindowCounter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

func NewWindowCounter(limit int, window time.Duration) *WindowCounter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &WindowCounter{limit: limit, window: window, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (w *WindowCounter) WithClock(now func() time.Time) *WindowCounter {
	w.now = now
	return w
}

func (w *WindowCounter) Allow(_ context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if w.windowEnd.IsZero() || now.After(w.windowEnd) {
		w.count = 0
		w.windowEnd = now.Add(w.window)
	}
	if w.count >= w.limit {
		return false, nil
	}
	w.count++
	return true, nil
}
