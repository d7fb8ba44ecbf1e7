package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/lms-auth/internal/core/domain"
	"github.com/campushub/lms-auth/internal/core/port"
	"github.com/campushub/lms-auth/internal/infra/logger"
	"github.com/campushub/lms-auth/internal/infra/security"
	"github.com/campushub/lms-auth/internal/repository"
)

// PasswordResetService coordinates the forgot/reset password flows.
type PasswordResetService struct {
	users       port.UserDirectory
	tokens      port.RefreshTokenRepository
	codec       *security.TokenCodec
	hasher      *security.PasswordHasher
	policy      security.PasswordPolicyConfig
	mailer      port.Mailer
	audit       port.AuditSink
	log         *zap.Logger
	frontendURL string
	now         func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	users port.UserDirectory,
	tokens port.RefreshTokenRepository,
	codec *security.TokenCodec,
	hasher *security.PasswordHasher,
	policy security.PasswordPolicyConfig,
	mailer port.Mailer,
	audit port.AuditSink,
	log *zap.Logger,
	frontendURL string,
) (*PasswordResetService, error) {
	if users == nil || tokens == nil || codec == nil || hasher == nil || mailer == nil {
		return nil, fmt.Errorf("password reset service: missing dependency")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		users:       users,
		tokens:      tokens,
		codec:       codec,
		hasher:      hasher,
		policy:      policy,
		mailer:      mailer,
		audit:       audit,
		log:         log,
		frontendURL: frontendURL,
		now:         time.Now,
	}, nil
}

// WithClock overrides the service time source. Intended for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// Forgot issues a reset token for the account behind the email and hands a
// reset link to the mailer. Unknown addresses succeed silently so the
// endpoint cannot be used to enumerate accounts.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("password reset requested for unknown email", zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.codec.IssuePasswordResetToken(user.Username)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	expires := s.now().UTC().Add(s.codec.ResetTokenTTL())
	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetLink(token), expires); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	s.publishAudit(ctx, domain.AuditPasswordResetRequest, &user.ID, map[string]any{
		"email": logger.MaskEmail(user.Email),
	})

	return nil
}

// Reset verifies the token, enforces the password policy, and replaces the
// account password. Outstanding refresh tokens are revoked so stolen
// sessions die with the old password.
func (s *PasswordResetService) Reset(ctx context.Context, token, newPassword string) error {
	username, err := s.codec.VerifyPasswordResetToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	validator := security.NewPasswordPolicy(s.policy, username)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		s.log.Warn("revoke sessions after password reset", zap.Error(err), zap.String("user_id", user.ID))
	}

	s.publishAudit(ctx, domain.AuditPasswordReset, &user.ID, map[string]any{
		"sessions_revoked": revoked,
	})

	return nil
}

func (s *PasswordResetService) resetLink(token string) string {
	base := s.frontendURL
	if base == "" {
		base = "/reset-password"
	} else {
		base += "/reset-password"
	}
	return base + "?token=" + url.QueryEscape(token)
}

func (s *PasswordResetService) publishAudit(ctx context.Context, eventType domain.AuditEventType, userID *string, metadata map[string]any) {
	if s.audit == nil {
		return
	}

	event := domain.AuditEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: s.now().UTC(),
		Metadata:   metadata,
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.Warn("publish audit event", zap.Error(err), zap.String("event_type", string(eventType)))
	}
}
