package domain

import "time"

// RefreshToken represents a persisted refresh token (stored as a hash).
// Rows are never deleted; revocation flips the flag so the ledger keeps
// a full history of issued tokens.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsActive returns true when the token can still be presented for rotation.
func (t RefreshToken) IsActive(at time.Time) bool {
	return !t.Revoked && !t.IsExpired(at)
}

// AccessClaims carries the identity data embedded in an access token.
type AccessClaims struct {
	Username  string
	FullName  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
