package port

import (
	"context"

	"github.com/campushub/lms-auth/internal/core/domain"
)

// UserDirectory exposes the slice of the user store the auth flows need.
// The directory owns the user records; this service reads them and writes
// only the password hash during a completed reset.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
}
