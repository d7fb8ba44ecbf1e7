package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/lms-auth/internal/transport/http/middleware"
	"github.com/campushub/lms-auth/internal/usecase"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

// AuthHandler exposes login, refresh, and logout endpoints.
type AuthHandler struct {
	auth            *usecase.AuthService
	rateLimitWindow time.Duration
	now             func() time.Time
}

// NewAuthHandler constructs AuthHandler. The rate-limit window is only used
// to populate Retry-After on throttled logins.
func NewAuthHandler(auth *usecase.AuthService, rateLimitWindow time.Duration) *AuthHandler {
	if rateLimitWindow <= 0 {
		rateLimitWindow = 15 * time.Minute
	}
	return &AuthHandler{
		auth:            auth,
		rateLimitWindow: rateLimitWindow,
		now:             time.Now,
	}
}

// WithClock overrides the handler time source. Intended for tests.
func (h *AuthHandler) WithClock(now func() time.Time) *AuthHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// RegisterRoutes binds the session lifecycle routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	req.UsernameOrEmail = strings.TrimSpace(req.UsernameOrEmail)

	result, err := h.auth.Login(c.Request.Context(), req.UsernameOrEmail, req.Password, clientIP(c))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTooManyAttempts):
			middleware.RespondRateLimited(c, h.rateLimitWindow)
		case errors.Is(err, usecase.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		}
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	c.JSON(http.StatusOK, sessionResponse(result))
}

func (h *AuthHandler) refresh(c *gin.Context) {
	presented, _ := c.Cookie(refreshCookieName)

	result, err := h.auth.Refresh(c.Request.Context(), presented)
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, usecase.ErrMissingToken):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "refresh token missing"))
		case errors.Is(err, usecase.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid refresh token"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "refresh failed"))
		}
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	c.JSON(http.StatusOK, sessionResponse(result))
}

func (h *AuthHandler) logout(c *gin.Context) {
	presented, _ := c.Cookie(refreshCookieName)

	// The cookie is cleared no matter what; revocation of an unknown token
	// is a no-op server side.
	h.clearRefreshCookie(c)

	if err := h.auth.Logout(c.Request.Context(), presented); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	c.Status(http.StatusOK)
}

func sessionResponse(result *usecase.SessionResult) SessionResponse {
	return SessionResponse{
		AccessToken:      result.AccessToken,
		ExpiresInSeconds: result.ExpiresIn,
		Username:         result.Username,
		FullName:         result.FullName,
		Role:             string(result.Role),
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(h.now()) / time.Second)
	if maxAge < 0 {
		maxAge = 0
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, raw, maxAge, refreshCookiePath, "", true, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", true, true)
}

// clientIP resolves the caller address, honoring the first hop of
// X-Forwarded-For when an upstream proxy supplied one.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}
