package port

import "context"

// LoginLimiter throttles credential-verification attempts per client key
// (normally the client IP) over a fixed window.
type LoginLimiter interface {
	// Allow reports whether the key may attempt a login. A false result
	// means the failure count within the current window has reached the
	// configured threshold.
	Allow(ctx context.Context, key string) (bool, error)
	// RecordFailure increments the key's counter for the current window,
	// creating the window when absent.
	RecordFailure(ctx context.Context, key string) error
}
