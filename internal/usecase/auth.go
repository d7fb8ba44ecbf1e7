package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/lms-auth/internal/core/domain"
	"github.com/campushub/lms-auth/internal/core/port"
	"github.com/campushub/lms-auth/internal/infra/logger"
	"github.com/campushub/lms-auth/internal/infra/security"
	"github.com/campushub/lms-auth/internal/repository"
)

const refreshTokenBytes = 32

// SessionResult is returned by Login and Refresh: a fresh access token plus
// the raw refresh token value destined for the session cookie.
type SessionResult struct {
	AccessToken      string
	ExpiresIn        int64
	Username         string
	FullName         string
	Role             domain.Role
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates login, refresh rotation, and logout.
type AuthService struct {
	users      port.UserDirectory
	tokens     port.RefreshTokenRepository
	limiter    port.LoginLimiter
	codec      *security.TokenCodec
	hasher     *security.PasswordHasher
	audit      port.AuditSink
	log        *zap.Logger
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserDirectory,
	tokens port.RefreshTokenRepository,
	limiter port.LoginLimiter,
	codec *security.TokenCodec,
	hasher *security.PasswordHasher,
	audit port.AuditSink,
	log *zap.Logger,
	refreshTTL time.Duration,
) (*AuthService, error) {
	if users == nil || tokens == nil || limiter == nil || codec == nil || hasher == nil {
		return nil, fmt.Errorf("auth service: missing dependency")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		limiter:    limiter,
		codec:      codec,
		hasher:     hasher,
		audit:      audit,
		log:        log,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the service time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login verifies credentials for the identifier (username or email) and
// issues a fresh session. Every failed verification counts against the
// client IP's attempt budget.
func (s *AuthService) Login(ctx context.Context, identifier, password, clientIP string) (*SessionResult, error) {
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	allowed, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		return nil, fmt.Errorf("check login limiter: %w", err)
	}
	if !allowed {
		return nil, ErrTooManyAttempts
	}

	user, err := s.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.failLogin(ctx, identifier, clientIP)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok || !user.Enabled {
		return nil, s.failLogin(ctx, identifier, clientIP)
	}

	result, err := s.issueSession(ctx, *user)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, domain.AuditLoginSuccess, &user.ID, map[string]any{
		"username":  user.Username,
		"client_ip": clientIP,
	})

	return result, nil
}

// Refresh rotates the presented refresh token and issues a fresh session.
// The presented token is revoked before its replacement is minted; two
// concurrent presentations of the same value yield exactly one winner.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*SessionResult, error) {
	if presented == "" {
		return nil, ErrMissingToken
	}

	token, err := s.tokens.GetByHash(ctx, security.HashToken(presented))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if !token.IsActive(s.now().UTC()) {
		return nil, ErrInvalidToken
	}

	won, err := s.tokens.Revoke(ctx, token.ID)
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !won {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Enabled {
		return nil, ErrInvalidToken
	}

	return s.issueSession(ctx, *user)
}

// Logout revokes the presented refresh token. An empty or unknown value is
// a no-op: logout never fails from the caller's perspective.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	token, err := s.tokens.GetByHash(ctx, security.HashToken(presented))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if _, err := s.tokens.Revoke(ctx, token.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.publishAudit(ctx, domain.AuditLogout, &token.UserID, nil)
	return nil
}

// VerifyAccess parses and validates a bearer access token, returning the
// embedded claims for downstream authorization.
func (s *AuthService) VerifyAccess(_ context.Context, bearer string) (*domain.AccessClaims, error) {
	return s.codec.ParseAccessToken(bearer)
}

// AccessTokenTTL exposes the configured access token lifetime.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.codec.AccessTokenTTL()
}

func (s *AuthService) lookupByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.users.GetByEmail(ctx, identifier)
}

func (s *AuthService) failLogin(ctx context.Context, identifier, clientIP string) error {
	if err := s.limiter.RecordFailure(ctx, clientIP); err != nil {
		s.log.Warn("record login failure", zap.Error(err), zap.String("client_ip", logger.MaskIP(clientIP)))
	}

	s.publishAudit(ctx, domain.AuditLoginFailed, nil, map[string]any{
		"identifier": identifier,
		"client_ip":  clientIP,
	})

	return ErrInvalidCredentials
}

func (s *AuthService) issueSession(ctx context.Context, user domain.User) (*SessionResult, error) {
	accessToken, err := s.codec.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	raw, err := security.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now().UTC()
	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &SessionResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(s.codec.AccessTokenTTL().Seconds()),
		Username:         user.Username,
		FullName:         user.FullName,
		Role:             user.Role,
		RefreshToken:     raw,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

func (s *AuthService) publishAudit(ctx context.Context, eventType domain.AuditEventType, userID *string, metadata map[string]any) {
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
