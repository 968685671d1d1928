package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter shared by every worker replica talking to the same Redis.
type RateLimiter struct {
	c      *redis.Client
	prefix string
	now    func() time.Time
}

func NewRateLimiter(addr, prefix string) *RateLimiter {
	return NewRateLimiterFromClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

func NewRateLimiterFromClient(c *redis.Client, prefix string) *RateLimiter {
	if prefix == "" {
		prefix = "rl:upstream"
	}
	return &RateLimiter{c: c, prefix: prefix, now: time.Now}
}

// Allow counts one call in the current window and reports whether it stays within limit.
// Returns (allowed, countInWindow).
func (rl *RateLimiter) Allow(ctx context.Context, limit int64, window time.Duration) (bool, int64, error) {
	if window <= 0 {
		window = time.Minute
	}
	bucket := rl.now().UnixNano() / int64(window)
	key := fmt.Sprintf("%s:%d", rl.prefix, bucket)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
