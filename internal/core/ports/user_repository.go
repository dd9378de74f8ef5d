package ports

import (
	"context"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// UserPatch is a partial profile update. A nil field means "not provided" and
// leaves the stored value untouched.
type UserPatch struct {
	Email    *string
	Username *string
}

// UserRepository is the credential store: one record per user carrying the
// identity, password hash, and the single active refresh token.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts a new user. A duplicate email yields domain.ErrEmailInUse.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch UserPatch) (*domain.User, error)

	// SetRefreshToken unconditionally overwrites the stored refresh token,
	// invalidating whatever session held the previous one. Used by login and
	// register.
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error

	// SwapRefreshToken replaces the stored refresh token only if its current
	// value still equals current (nil meaning "no active session"). A failed
	// swap yields domain.ErrTokenMismatch. next == nil revokes the session.
	SwapRefreshToken(ctx context.Context, userID string, current, next *string) error
}
