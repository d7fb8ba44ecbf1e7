package security

import (
	"errors"
	"testing"
	"time"

	"github.com/campushub/lms-auth/internal/core/domain"
)

func newTestCodec(t *testing.T, now time.Time) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(TokenCodecConfig{
		Secret:         "unit-test-signing-secret",
		AccessTokenTTL: 15 * time.Minute,
		ResetTokenTTL:  30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec.WithClock(func() time.Time { return now })
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	user := domain.User{
		Username: "jdoe",
		FullName: "Jane Doe",
		Role:     domain.RoleTeacher,
	}

	token, err := codec.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := codec.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Username != "jdoe" {
		t.Fatalf("expected subject jdoe, got %q", claims.Username)
	}
	if claims.FullName != "Jane Doe" {
		t.Fatalf("expected full name Jane Doe, got %q", claims.FullName)
	}
	if claims.Role != domain.RoleTeacher {
		t.Fatalf("expected role TEACHER, got %q", claims.Role)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 15*time.Minute {
		t.Fatalf("expected 15m lifetime, got %s", got)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	other, err := NewTokenCodec(TokenCodecConfig{Secret: "a-different-secret"})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, err := other.IssueAccessToken(domain.User{Username: "jdoe", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := codec.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, issued)

	token, err := codec.IssueAccessToken(domain.User{Username: "jdoe", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	codec.WithClock(func() time.Time { return issued.Add(16 * time.Minute) })
	if _, err := codec.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestParseAccessTokenRejectsMalformed(t *testing.T) {
	codec := newTestCodec(t, time.Now())

	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := codec.ParseAccessToken(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("input %q: expected ErrInvalidToken, got %v", raw, err)
		}
	}
}
