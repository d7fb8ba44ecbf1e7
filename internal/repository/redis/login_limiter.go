package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campushub/lms-auth/internal/core/port"
)

// LoginLimiterConfig defines configuration for the Redis-backed limiter.
type LoginLimiterConfig struct {
	KeyPrefix string
	Window    time.Duration
	Threshold int
}

// LoginLimiter throttles login attempts per key using fixed window counters
// in Redis. Counters carry a TTL equal to the window, so buckets expire on
// their own and state is shared across service instances.
type LoginLimiter struct {
	client *redis.Client
	cfg    LoginLimiterConfig
	now    func() time.Time
}

// NewLoginLimiter constructs a limiter using the provided Redis client and config.
func NewLoginLimiter(client *redis.Client, cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "login_attempts"
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10
	}
	return &LoginLimiter{client: client, cfg: cfg, now: time.Now}
}

// WithClock overrides the limiter's time source. Intended for tests.
func (l *LoginLimiter) WithClock(now func() time.Time) *LoginLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Allow reports whether the key may attempt a login within the current
// window bucket.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.bucketKey(key)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}

	return count < l.cfg.Threshold, nil
}

// RecordFailure increments the key's counter for the current window bucket
// and stamps the bucket TTL on first use.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	bucket := l.bucketKey(key)

	count, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, bucket, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}

	return nil
}

func (l *LoginLimiter) bucketKey(key string) string {
	bucket := l.now().Unix() / int64(l.cfg.Window.Seconds())
	return fmt.Sprintf("%s:%s:%d", l.cfg.KeyPrefix, key, bucket)
}

var _ port.LoginLimiter = (*LoginLimiter)(nil)
