package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts operations per key over a fixed window.
type Limiter interface {
	// Allow records one attempt for key and reports whether it stays within limit.
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// SendKey is the limiter key for OTP sends to a phone number.
func SendKey(phone string) string {
	return "otp:send:" + phone
}

// CheckKey is the limiter key for OTP check attempts for a phone number.
func CheckKey(phone string) string {
	return "otp:check:" + phone
}

type redisLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisLimiter returns a Redis-backed fixed-window limiter.
func NewRedisLimiter(client *redis.Client, window time.Duration) Limiter {
	return &redisLimiter{client: client, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
