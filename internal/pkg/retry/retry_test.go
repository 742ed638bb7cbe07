package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func TestDo(t *testing.T) {
	retryable := func(err error) bool { return errors.Is(err, errTransient) }

	tests := []struct {
		name      string
		results   []error
		wantCalls int
		wantWaits int
		wantErr   error
	}{
		{name: "first try succeeds", results: []error{nil}, wantCalls: 1},
		{name: "succeeds on third", results: []error{errTransient, errTransient, nil}, wantCalls: 3, wantWaits: 2},
		{name: "exhausted returns last error", results: []error{errTransient, errTransient, errTransient}, wantCalls: 3, wantWaits: 2, wantErr: errTransient},
		{name: "non retryable stops", results: []error{errFatal, nil}, wantCalls: 1, wantErr: errFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			calls := 0
			err := Do(context.Background(), Policy{
				Attempts:  3,
				Backoff:   Linear(time.Microsecond),
				Retryable: retryable,
				OnRetry: func(_ int, _ error, d time.Duration) {
					delays = append(delays, d)
				},
			}, func(_ context.Context, attempt int) error {
				calls++
				assert.Equal(t, calls, attempt)
				return tt.results[attempt-1]
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, delays, tt.wantWaits)
		})
	}
}

func TestDoBackoffSeesError(t *testing.T) {
	var seen []time.Duration
	_ = Do(context.Background(), Policy{
		Attempts: 3,
		Backoff: func(attempt int, err error) time.Duration {
			if errors.Is(err, errTransient) {
				return time.Duration(attempt*2) * time.Microsecond
			}
			return time.Duration(attempt) * time.Microsecond
		},
		OnRetry: func(_ int, _ error, d time.Duration) { seen = append(seen, d) },
	}, func(_ context.Context, attempt int) error {
		if attempt == 1 {
			return errFatal
		}
		return errTransient
	})
	assert.Equal(t, []time.Duration{time.Microsecond, 4 * time.Microsecond}, seen)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 5, Backoff: Linear(time.Hour)}, func(context.Context, int) error {
		calls++
		cancel()
		return errTransient
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
