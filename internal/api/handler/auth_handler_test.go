package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, username string) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, refreshToken string) (*ports.TokenPair, error)
	logoutFn   func(ctx context.Context, refreshToken string) error
}

func (s *stubAuthService) Register(ctx context.Context, email, password, username string) (*ports.AuthResult, error) {
	return s.registerFn(ctx, email, password, username)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

func newAuthTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, email, password, username string) (*ports.AuthResult, error) {
			if email != "alice@example.com" || password != "s3cret-pass" || username != "alice" {
				t.Fatalf("unexpected args: %s %s %s", email, password, username)
			}
			return &ports.AuthResult{
				UserID:       "user-1",
				Email:        email,
				Username:     username,
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
			}, nil
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"s3cret-pass","username":"alice"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["accessToken"] != "access-token" || resp["id"] != "user-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["refreshToken"]; leaked {
		t.Fatalf("refresh token leaked into the response body")
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatalf("refresh cookie not set")
	}
	if cookie.Value != "refresh-token" {
		t.Fatalf("unexpected cookie value: %s", cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes too permissive: %+v", cookie)
	}
	if cookie.Path != "/" {
		t.Fatalf("unexpected cookie path: %s", cookie.Path)
	}
	if cookie.MaxAge != int((168 * time.Hour).Seconds()) {
		t.Fatalf("unexpected cookie max-age: %d", cookie.MaxAge)
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, _, _, _ string) (*ports.AuthResult, error) {
			t.Fatalf("service should not be reached on validation failure")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"short","username":"alice"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_EmailInUse(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, _, _, _ string) (*ports.AuthResult, error) {
			return nil, domain.ErrEmailInUse
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"bob@example.com","password":"longenough","username":"bob"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, _, _ string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"bob@example.com","password":"wrong"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if cookie := refreshCookie(rec); cookie != nil {
		t.Fatalf("cookie set on failed login")
	}
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, refreshToken string) (*ports.TokenPair, error) {
			if refreshToken != "old-refresh" {
				t.Fatalf("unexpected presented token: %s", refreshToken)
			}
			return &ports.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh"})

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["accessToken"] != "new-access" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	cookie := refreshCookie(rec)
	if cookie == nil || cookie.Value != "new-refresh" {
		t.Fatalf("rotated cookie not set: %+v", cookie)
	}
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, _ string) (*ports.TokenPair, error) {
			t.Fatalf("service should not be reached without a cookie")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/refresh", "")

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh_Mismatch(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, _ string) (*ports.TokenPair, error) {
			return nil, domain.ErrTokenMismatch
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "stolen"})

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, refreshToken string) error {
			if refreshToken != "live-refresh" {
				t.Fatalf("unexpected presented token: %s", refreshToken)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "live-refresh"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatalf("clearing cookie not set")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared: %+v", cookie)
	}
}

func TestAuthHandler_Logout_StaleToken(t *testing.T) {
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, _ string) error {
			return domain.ErrTokenMismatch
		},
	}
	h := NewAuthHandler(stub, 168*time.Hour, true)

	c, rec := newAuthTestContext(t, http.MethodPost, "/auth/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "stale"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	// The cookie is cleared even when the token was already revoked.
	cookie := refreshCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared on stale logout: %+v", cookie)
	}
}
