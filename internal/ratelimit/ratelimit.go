package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "report_rate:"

// Limiter is a fixed-window request counter kept in Redis so every
// replica shares the same budget per key
type Limiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

// New creates a limiter allowing max requests per key in each window.
// A non-positive max disables limiting.
func New(client *redis.Client, max int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, window: window, max: max}
}

// Allow counts one request for key and reports whether it fits the window
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil || l.max <= 0 {
		return true, nil
	}

	redisKey := keyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate window: %w", err)
		}
	}

	return count <= int64(l.max), nil
}

// Remaining returns how many requests key has left in the current window
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	if l == nil || l.client == nil || l.max <= 0 {
		return 0, nil
	}

	count, err := l.client.Get(ctx, keyPrefix+key).Int()
	if err == redis.Nil {
		return l.max, nil
	}
	if err != nil {
		return 0, err
	}
	if count >= l.max {
		return 0, nil
	}
	return l.max - count, nil
}
