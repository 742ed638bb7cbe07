package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindowCounter shares one fixed window between server replicas.
type RedisWindowCounter struct {
	client *redis.Client
	key    string
	limit  int
	window time.Duration
}

func NewRedisWindowCounter(client *redis.Client, key string, limit int, window time.Duration) *RedisWindowCounter {
	if key == "" {
		key = "ratelimit:completion"
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisWindowCounter{client: client, key: key, limit: limit, window: window}
}

// Allow counts the call and reports whether the window still admits it.
// The TTL is checked on every call so a key left without expiry by a failed
// PEXPIRE gets one on the next call.
func (r *RedisWindowCounter) Allow(ctx context.Context) (bool, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, r.key)
		ttl = pipe.PTTL(ctx, r.key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr rate limit failed: %w", err)
	}
	if ttl.Val() < 0 {
		if err := r.client.PExpire(ctx, r.key, r.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire rate limit failed: %w", err)
		}
	}
	return incr.Val() <= int64(r.limit), nil
}
