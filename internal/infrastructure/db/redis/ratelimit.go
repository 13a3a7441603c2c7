package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a fixed-window per-key request counter backed by
// Redis, shared across server instances. Key format: ratelimit:<name>:<key>.
type RateLimiter struct {
	client *redis.Client
	name   string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// each key under the given name.
func NewRateLimiter(client *redis.Client, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, name: name, limit: limit, window: window}
}

// Allow counts one request for key and reports whether it is within the
// limit. The window TTL is set on the first request of each window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}

func (l *RateLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.name, key)
}
