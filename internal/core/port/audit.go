package port

import (
	"context"

	"github.com/campushub/lms-auth/internal/core/domain"
)

// AuditSink receives security events from the auth flows. Implementations
// must be fire-and-forget: a failed publish never fails the operation that
// produced the event.
type AuditSink interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}
