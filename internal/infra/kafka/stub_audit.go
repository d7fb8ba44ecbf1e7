package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/lms-auth/internal/core/domain"
	"github.com/campushub/lms-auth/internal/core/port"
)

// StubAuditSink records audit events to the structured log. Used when no
// Kafka brokers are configured, typically in development.
type StubAuditSink struct {
	logger *zap.Logger
}

// NewStubAuditSink builds a logging audit sink.
func NewStubAuditSink(logger *zap.Logger) *StubAuditSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubAuditSink{logger: logger}
}

// Publish logs the event instead of producing it.
func (s *StubAuditSink) Publish(_ context.Context, event domain.AuditEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", *event.UserID))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	s.logger.Info("audit event", fields...)
	return nil
}

var _ port.AuditSink = (*StubAuditSink)(nil)
