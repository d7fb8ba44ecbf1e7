package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campushub/lms-auth/internal/core/domain"
)

// ErrInvalidToken covers every access or reset token verification failure:
// bad signature, malformed structure, unexpected algorithm, or elapsed
// expiry. Callers see a single failure class regardless of cause.
var ErrInvalidToken = errors.New("security: invalid token")

// accessTokenClaims augments registered claims with the fixed identity set
// embedded in every access token.
type accessTokenClaims struct {
	Role     string `json:"role"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// TokenCodecConfig configures access and reset token issuance.
type TokenCodecConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
}

const (
	defaultAccessTokenTTL = 15 * time.Minute
	defaultResetTokenTTL  = 30 * time.Minute
)

// TokenCodec mints and verifies the two stateless token formats: HS256
// access tokens and HMAC-signed password reset tokens. Both are keyed from
// the same symmetric secret.
type TokenCodec struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewTokenCodec constructs a codec from the supplied configuration.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token codec: signing secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTokenTTL
	}
	return &TokenCodec{
		secret:    []byte(cfg.Secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}, nil
}

// WithClock overrides the codec's time source. Intended for tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// ResetTokenTTL returns the configured reset token lifetime.
func (c *TokenCodec) ResetTokenTTL() time.Duration {
	return c.resetTTL
}

// IssueAccessToken signs an HS256 JWT for the user. Subject carries the
// username; role and full name travel as custom claims.
func (c *TokenCodec) IssueAccessToken(user domain.User) (string, error) {
	now := c.now().UTC()
	claims := accessTokenClaims{
		Role:     string(user.Role),
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, algorithm, structure, and expiry,
// and returns the embedded claims. Any failure maps to ErrInvalidToken.
func (c *TokenCodec) ParseAccessToken(raw string) (*domain.AccessClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed := accessTokenClaims{}
	token, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if parsed.Subject == "" {
		return nil, ErrInvalidToken
	}

	claims := &domain.AccessClaims{
		Username: parsed.Subject,
		FullName: parsed.FullName,
		Role:     domain.Role(parsed.Role),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
