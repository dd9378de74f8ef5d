package domain

import (
	"errors"
	"time"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenMismatch      = errors.New("refresh token mismatch")
	ErrMissingToken       = errors.New("missing token")
)

// User models an account and its session state. RefreshToken holds the single
// currently-valid refresh token, or nil when there is no active session;
// issuing a new one invalidates the previous by overwrite.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RefreshToken *string   `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
