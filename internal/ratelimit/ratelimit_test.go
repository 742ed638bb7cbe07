package ratelimit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestWindowCounter_RejectsAfterLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewWindowCounter(50, time.Minute).WithClock(clock.now)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		ok, err := limiter.Allow(ctx)
		require.NoError(t, err)
		require.True(t, ok, "call %d should pass", i+1)
		clock.t = clock.t.Add(time.Second)
	}

	ok, err := limiter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "51st call in the window must be rejected")

	ok, err = limiter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "rejections do not open new slots")
}

func TestWindowCounter_ResetsAtBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	limiter := NewWindowCounter(2, time.Minute).WithClock(clock.now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _ := limiter.Allow(ctx)
		require.True(t, ok)
	}

	clock.t = start.Add(time.Minute)
	ok, _ := limiter.Allow(ctx)
	assert.False(t, ok, "window end itself is still inside the window")

	clock.t = start.Add(time.Minute + time.Millisecond)
	ok, _ = limiter.Allow(ctx)
	assert.True(t, ok, "first check after the window end starts a new window")
	ok, _ = limiter.Allow(ctx)
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx)
	assert.False(t, ok, "new window admits exactly the limit")
}

func TestRedisWindowCounter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewRedisWindowCounter(client, "test:rl", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("test:rl"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisWindowCounter_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	ok, err := NewRedisWindowCounter(client, "", 0, 0).Allow(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

type failOnceHook struct {
	command string
	failed  atomic.Bool
}

func (h *failOnceHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *failOnceHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == h.command && h.failed.CompareAndSwap(false, true) {
			err := errors.New("transient expire failure")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h *failOnceHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisWindowCounter_RecoversFromFailedExpire(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	client.AddHook(&failOnceHook{command: "pexpire"})

	limiter := NewRedisWindowCounter(client, "test:rl", 2, time.Minute)
	ctx := context.Background()

	_, err = limiter.Allow(ctx)
	require.Error(t, err)
	assert.Equal(t, time.Duration(0), mr.TTL("test:rl"), "failed expire leaves the key without TTL")

	ok, err := limiter.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("test:rl"), "next call restores the window")

	ok, err = limiter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "window resets after the failed expire")
}
