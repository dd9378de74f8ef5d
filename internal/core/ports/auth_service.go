package ports

import "context"

// AuthResult is returned by register and login.
type AuthResult struct {
	UserID       string
	Email        string
	Username     string
	AccessToken  string
	RefreshToken string
}

// TokenPair is returned by refresh: a fresh access token plus the rotated
// refresh token that supersedes the presented one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService owns the session lifecycle: credential verification, token
// issuance, refresh rotation, and revocation.
type AuthService interface {
	Register(ctx context.Context, email, password, username string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}
