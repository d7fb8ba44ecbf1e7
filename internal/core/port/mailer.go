package port

import (
	"context"
	"time"
)

// Mailer hands composed messages to a delivery channel. Delivery mechanics
// are out of scope; implementations may log, queue, or send.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, link string, expires time.Time) error
}
