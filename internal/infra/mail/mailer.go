package mail

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/lms-auth/internal/core/port"
	"github.com/campushub/lms-auth/internal/infra/logger"
)

// LoggingMailer records outbound mail in the structured log without
// delivering it. Actual SMTP delivery belongs to a downstream notification
// service; this implementation satisfies the compose-and-hand-off contract.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a mailer backed by structured logging.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingMailer{logger: log}
}

// SendPasswordReset logs the composed reset message. The link carries the
// reset token, so it is masked.
func (m *LoggingMailer) SendPasswordReset(_ context.Context, to string, link string, expires time.Time) error {
	m.logger.Info("dispatch password reset mail",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("link", logger.MaskString(link)),
		zap.Time("expires_at", expires),
	)
	return nil
}

var _ port.Mailer = (*LoggingMailer)(nil)
