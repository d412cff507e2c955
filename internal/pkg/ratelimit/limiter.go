// internal/pkg/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter kept in redis, shared by every
// replica.
type Limiter struct {
	client      redis.UniversalClient
	maxRequests int64
	window      time.Duration
}

func NewLimiter(client redis.UniversalClient, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		client:      client,
		maxRequests: int64(maxRequests),
		window:      window,
	}
}

// Allow counts one request for subject on route and reports whether it is
// within the limit for the current window.
func (l *Limiter) Allow(ctx context.Context, subject, route string) (bool, error) {
	key := fmt.Sprintf("ratelimit:api:%s:%s", subject, route)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment API rate limit: %w", err)
	}

	// Set expiration on first request of the window
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= l.maxRequests, nil
}

// Remaining returns how many requests subject has left on route.
func (l *Limiter) Remaining(ctx context.Context, subject, route string) (int64, error) {
	key := fmt.Sprintf("ratelimit:api:%s:%s", subject, route)

	count, err := l.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return l.maxRequests, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter for subject on route.
func (l *Limiter) Reset(ctx context.Context, subject, route string) error {
	key := fmt.Sprintf("ratelimit:api:%s:%s", subject, route)
	return l.client.Del(ctx, key).Err()
}
