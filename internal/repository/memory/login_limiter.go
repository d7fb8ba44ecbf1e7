package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campushub/lms-auth/internal/core/port"
)

const (
	// DefaultWindow bounds how long failed attempts count against a key.
	DefaultWindow = 15 * time.Minute
	// DefaultThreshold is the failure count at which a key is locked out.
	DefaultThreshold = 10
)

// LoginLimiterConfig tunes the fixed window limiter.
type LoginLimiterConfig struct {
	Window    time.Duration
	Threshold int
}

type windowRecord struct {
	mu       sync.Mutex
	start    time.Time
	failures int
}

// LoginLimiter throttles login attempts per key using a fixed window held
// in process memory. State does not survive a restart; deployments that
// need shared counters across instances use the Redis-backed limiter.
type LoginLimiter struct {
	window    time.Duration
	threshold int
	records   sync.Map
	now       func() time.Time
}

// NewLoginLimiter constructs an in-process fixed window limiter.
func NewLoginLimiter(cfg LoginLimiterConfig) *LoginLimiter {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &LoginLimiter{
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
}

// WithClock overrides the limiter's time source. Intended for tests.
func (l *LoginLimiter) WithClock(now func() time.Time) *LoginLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Allow reports whether the key may attempt a login. A key with no record
// is always allowed; an expired window resets before the check.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	value, ok := l.records.Load(key)
	if !ok {
		return true, nil
	}

	record := value.(*windowRecord)
	record.mu.Lock()
	defer record.mu.Unlock()

	if l.now().Sub(record.start) > l.window {
		record.start = l.now()
		record.failures = 0
		return true, nil
	}

	return record.failures < l.threshold, nil
}

// RecordFailure increments the key's counter for the current window,
// creating the window when absent.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	value, _ := l.records.LoadOrStore(key, &windowRecord{start: l.now()})

	record := value.(*windowRecord)
	record.mu.Lock()
	defer record.mu.Unlock()

	if l.now().Sub(record.start) > l.window {
		record.start = l.now()
		record.failures = 0
	}
	record.failures++
	return nil
}

var _ port.LoginLimiter = (*LoginLimiter)(nil)
