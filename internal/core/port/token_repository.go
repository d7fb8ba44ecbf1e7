package port

import (
	"context"

	"github.com/campushub/lms-auth/internal/core/domain"
)

// RefreshTokenRepository manages the durable refresh-token ledger.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// Revoke marks a non-revoked row revoked and reports whether this call
	// performed the transition. A false return with a nil error means a
	// concurrent caller revoked the row first.
	Revoke(ctx context.Context, tokenID string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}
