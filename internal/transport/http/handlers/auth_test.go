package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/lms-auth/internal/core/domain"
	"github.com/campushub/lms-auth/internal/infra/security"
	"github.com/campushub/lms-auth/internal/repository"
	"github.com/campushub/lms-auth/internal/usecase"
)

type fakeUserDirectory struct {
	byID       map[string]domain.User
	byUsername map[string]domain.User
	byEmail    map[string]domain.User
}

func newFakeUserDirectory(users ...domain.User) *fakeUserDirectory {
	d := &fakeUserDirectory{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]domain.User),
		byEmail:    make(map[string]domain.User),
	}
	for _, u := range users {
		d.byID[u.ID] = u
		d.byUsername[u.Username] = u
		d.byEmail[u.Email] = u
	}
	return d
}

func (d *fakeUserDirectory) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := d.byID[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeUserDirectory) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := d.byUsername[username]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeUserDirectory) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := d.byEmail[email]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeUserDirectory) UpdatePasswordHash(_ context.Context, userID string, hash string) error {
	u, ok := d.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	d.byID[userID] = u
	d.byUsername[u.Username] = u
	d.byEmail[u.Email] = u
	return nil
}

type fakeTokenRepo struct {
	byHash  map[string]domain.RefreshToken
	revoked []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: make(map[string]domain.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token domain.RefreshToken) error {
	r.byHash[token.TokenHash] = token
	return nil
}

func (r *fakeTokenRepo) GetByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	if t, ok := r.byHash[hash]; ok {
		return &t, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) Revoke(_ context.Context, tokenID string) (bool, error) {
	for hash, t := range r.byHash {
		if t.ID == tokenID && !t.Revoked {
			t.Revoked = true
			r.byHash[hash] = t
			r.revoked = append(r.revoked, tokenID)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	count := 0
	for hash, t := range r.byHash {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			r.byHash[hash] = t
			count++
		}
	}
	return count, nil
}

type fakeLimiter struct {
	blocked  map[string]bool
	failures map[string]int
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{blocked: make(map[string]bool), failures: make(map[string]int)}
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	return !l.blocked[key], nil
}

func (l *fakeLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

type fakeAuditSink struct {
	events []domain.AuditEvent
}

func (a *fakeAuditSink) Publish(_ context.Context, event domain.AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

type fakeMailer struct {
	to      []string
	links   []string
	expires []time.Time
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to string, link string, expires time.Time) error {
	m.to = append(m.to, to)
	m.links = append(m.links, link)
	m.expires = append(m.expires, expires)
	return nil
}

func fastArgon2Config() security.Argon2Config {
	return security.Argon2Config{
		Memory:      8192,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	}
}

type handlerFixture struct {
	router  *gin.Engine
	users   *fakeUserDirectory
	tokens  *fakeTokenRepo
	limiter *fakeLimiter
	audit   *fakeAuditSink
	mailer  *fakeMailer
	hasher  *security.PasswordHasher
	codec   *security.TokenCodec
}

func newHandlerFixture(t *testing.T, users ...domain.User) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := security.NewTokenCodec(security.TokenCodecConfig{Secret: "handler-test-signing-secret"})
	if err != nil {
		t.Fatalf("create token codec: %v", err)
	}

	hasher, err := security.NewPasswordHasher(fastArgon2Config())
	if err != nil {
		t.Fatalf("create password hasher: %v", err)
	}

	f := &handlerFixture{
		users:   newFakeUserDirectory(users...),
		tokens:  newFakeTokenRepo(),
		limiter: newFakeLimiter(),
		audit:   &fakeAuditSink{},
		mailer:  &fakeMailer{},
		hasher:  hasher,
		codec:   codec,
	}

	auth, err := usecase.NewAuthService(f.users, f.tokens, f.limiter, codec, hasher, f.audit, nil, 0)
	if err != nil {
		t.Fatalf("create auth service: %v", err)
	}

	reset, err := usecase.NewPasswordResetService(
		f.users, f.tokens, codec, hasher, security.PasswordPolicyConfig{MinLength: 8},
		f.mailer, f.audit, nil, "https://lms.example.edu",
	)
	if err != nil {
		t.Fatalf("create password reset service: %v", err)
	}

	router := gin.New()
	group := router.Group("/api/auth")
	NewAuthHandler(auth, 15*time.Minute).RegisterRoutes(group)
	NewPasswordHandler(reset).RegisterRoutes(group)

	f.router = router
	return f
}

func (f *handlerFixture) addUser(t *testing.T, password string) domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := domain.User{
		ID:           "user-1",
		Username:     "jdoe",
		Email:        "jdoe@example.edu",
		FullName:     "Jane Doe",
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		Enabled:      true,
	}
	f.users.byID[user.ID] = user
	f.users.byUsername[user.Username] = user
	f.users.byEmail[user.Email] = user
	return user
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func refreshCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatalf("expected %s cookie in response", refreshCookieName)
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	f := newHandlerFixture(t)
	f.addUser(t, "correct horse 1")

	rr := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "jdoe",
		Password:        "correct horse 1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token in response")
	}
	if resp.ExpiresInSeconds != 900 {
		t.Fatalf("expected 900 second expiry, got %d", resp.ExpiresInSeconds)
	}
	if resp.Username != "jdoe" || resp.FullName != "Jane Doe" || resp.Role != "STUDENT" {
		t.Fatalf("unexpected identity fields: %+v", resp)
	}

	cookie := refreshCookie(t, rr)
	if cookie.Value == "" {
		t.Fatal("expected non-empty refresh cookie")
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("expected HttpOnly+Secure cookie, got %+v", cookie)
	}
	if cookie.Path != refreshCookiePath {
		t.Fatalf("expected cookie path %q, got %q", refreshCookiePath, cookie.Path)
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", cookie.SameSite)
	}
	wantMaxAge := int(7 * 24 * time.Hour / time.Second)
	if cookie.MaxAge < wantMaxAge-5 || cookie.MaxAge > wantMaxAge {
		t.Fatalf("expected Max-Age near %d, got %d", wantMaxAge, cookie.MaxAge)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newHandlerFixture(t)
	f.addUser(t, "correct horse 1")

	rr := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "jdoe",
		Password:        "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "invalid credentials" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie on failed login")
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newHandlerFixture(t)
	f.addUser(t, "correct horse 1")
	f.limiter.blocked["192.0.2.10"] = true

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"usernameOrEmail":"jdoe","password":"correct horse 1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.0.0.1")

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	var problem struct {
		Status     int    `json:"status"`
		Title      string `json:"title"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem payload: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests || problem.RetryAfter != 900 {
		t.Fatalf("unexpected problem payload: %+v", problem)
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	f := newHandlerFixture(t)
	f.addUser(t, "correct horse 1")

	login := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "jdoe",
		Password:        "correct horse 1",
	})
	first := refreshCookie(t, login)

	refresh := f.do(t, http.MethodPost, "/api/auth/refresh", nil, first)
	if refresh.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", refresh.Code, refresh.Body.String())
	}

	second := refreshCookie(t, refresh)
	if second.Value == first.Value {
		t.Fatal("expected rotated refresh token")
	}

	// The first token is dead after rotation.
	replay := f.do(t, http.MethodPost, "/api/auth/refresh", nil, first)
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 on replay, got %d", replay.Code)
	}

	cleared := refreshCookie(t, replay)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie on rejected refresh, got %+v", cleared)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodPost, "/api/auth/refresh", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestLogoutClearsCookieAndRevokes(t *testing.T) {
	f := newHandlerFixture(t)
	f.addUser(t, "correct horse 1")

	login := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		UsernameOrEmail: "jdoe",
		Password:        "correct horse 1",
	})
	cookie := refreshCookie(t, login)

	logout := f.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	if logout.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", logout.Code)
	}

	cleared := refreshCookie(t, logout)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cleared)
	}
	if len(f.tokens.revoked) != 1 {
		t.Fatalf("expected one revoked token, got %d", len(f.tokens.revoked))
	}

	// The session cookie no longer refreshes.
	rr := f.do(t, http.MethodPost, "/api/auth/refresh", nil, cookie)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 after logout, got %d", rr.Code)
	}
}

func TestLogoutWithoutCookieIsNoOp(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodPost, "/api/auth/logout", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	cleared := refreshCookie(t, rr)
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie clearing header, got %+v", cleared)
	}
}
