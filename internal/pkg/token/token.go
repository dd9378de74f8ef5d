// Package token issues and verifies the signed bearer tokens used for
// authentication: short-lived access tokens and long-lived refresh tokens,
// both HS256 JWTs whose subject is the user id.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Callers distinguish an expired token (silently
// reject) from a tampered one (reject, worth logging as a security event).
var (
	ErrMalformed        = errors.New("token malformed")
	ErrUnsupported      = errors.New("token signing method unsupported")
	ErrExpired          = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Manager signs and verifies tokens with a single process-wide secret,
// injected at construction time. There is no key rotation: swapping the
// secret invalidates every outstanding token.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager builds a Manager. Zero TTLs fall back to the defaults of thirty
// minutes for access tokens and seven days for refresh tokens.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL == 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccess creates a signed access token bound to userID.
func (m *Manager) IssueAccess(userID string) (string, error) {
	return m.issue(userID, "", m.accessTTL)
}

// IssueRefresh creates a signed refresh token bound to userID. Each carries
// a random token id, so rotation always produces a distinct string even when
// two tokens are issued within the same second.
func (m *Manager) IssueRefresh(userID string) (string, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", err
	}
	return m.issue(userID, jti, m.refreshTTL)
}

func (m *Manager) issue(userID, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func newTokenID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Verify checks signature and expiry and returns the bound user id.
func (m *Manager) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupported
		}
		return m.secret, nil
	})
	if err != nil {
		return "", mapVerifyError(err)
	}
	if !t.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// IsValid collapses all verification failure kinds to false. Used by the
// request authenticator, which does not need the distinction.
func (m *Manager) IsValid(tokenStr string) bool {
	_, err := m.Verify(tokenStr)
	return err == nil
}

// AccessTTL reports the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, ErrUnsupported):
		return ErrUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupported
	default:
		return ErrMalformed
	}
}
