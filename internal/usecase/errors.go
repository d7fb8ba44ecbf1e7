package usecase

import (
	"errors"

	"github.com/campushub/lms-auth/internal/infra/security"
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are
	// incorrect. Disabled accounts surface the same error so callers cannot
	// probe account state.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTooManyAttempts indicates the client exhausted the login attempt
	// budget for the current window.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrMissingToken indicates no refresh token accompanied the request.
	ErrMissingToken = errors.New("refresh token missing")
	// ErrInvalidToken covers unknown, revoked, expired, and malformed tokens
	// of every kind with a single externally visible failure.
	ErrInvalidToken = security.ErrInvalidToken
	// ErrWeakPassword indicates the proposed password fails the policy.
	ErrWeakPassword = errors.New("password does not meet policy requirements")
)
