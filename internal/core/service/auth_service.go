package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rulesiliveby/rules-api/internal/api/metrics"
	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
	"github.com/rulesiliveby/rules-api/internal/pkg/token"
)

// AuthService implements the session lifecycle: register, login, refresh
// rotation, and logout revocation. At most one refresh token is valid per
// user; every successful login or refresh overwrites the previous one.
type AuthService struct {
	users  ports.UserRepository
	tokens *token.Manager
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens *token.Manager, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, password, username string) (*ports.AuthResult, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailInUse
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same error for unknown email and wrong password, so the
			// response does not reveal which accounts exist.
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// openSession issues and persists a fresh refresh token, then issues the
// access token. The refresh token is stored before the result is returned so
// a crash in between leaves at worst a user who has to log in again, never a
// dangling session.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{
		UserID:       user.ID,
		Email:        user.Email,
		Username:     user.Username,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// stored token. A presented token that was already rotated out (or belongs to
// a logged-out user) fails with ErrTokenMismatch, so stolen tokens are
// single-use at best.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	user, err := s.verifyOwnership(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(refreshFailureReason(err)).Inc()
		return nil, err
	}

	next, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	// Conditional write: the swap only succeeds if the stored token still
	// equals the presented one, so two concurrent rotations cannot both win.
	if err := s.users.SwapRefreshToken(ctx, user.ID, &refreshToken, &next); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("mismatch").Inc()
		return nil, err
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}

	metrics.TokenRefreshTotal.WithLabelValues("rotated").Inc()
	return &ports.TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout revokes the session the presented refresh token belongs to.
// A second logout with the same token fails with ErrTokenMismatch; callers
// treat that as already logged out.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.verifyOwnership(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.users.SwapRefreshToken(ctx, user.ID, &refreshToken, nil); err != nil {
		return err
	}
	s.log.Info().Str("user_id", user.ID).Msg("session revoked")
	return nil
}

// verifyOwnership runs the shared refresh/logout checks: signature and expiry,
// user existence, and byte equality with the stored refresh token. A nil
// stored token always mismatches.
func (s *AuthService) verifyOwnership(ctx context.Context, refreshToken string) (*domain.User, error) {
	userID, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrSignatureInvalid) {
			s.log.Warn().Msg("refresh token with invalid signature presented")
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, domain.ErrTokenMismatch
	}
	return user, nil
}

func refreshFailureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenMismatch):
		return "mismatch"
	default:
		return "invalid"
	}
}
