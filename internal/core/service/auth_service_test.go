package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
	"github.com/rulesiliveby/rules-api/internal/pkg/token"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.RefreshToken != nil {
		rt := *u.RefreshToken
		clone.RefreshToken = &rt
	}
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailInUse
		}
	}
	copy := cloneUser(user)
	r.nextID++
	copy.ID = "user-" + strconv.Itoa(r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, userID, refreshToken string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	rt := refreshToken
	u.RefreshToken = &rt
	return nil
}

func (r *stubUserRepo) SwapRefreshToken(_ context.Context, userID string, current, next *string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrTokenMismatch
	}
	stored, presented := u.RefreshToken, current
	switch {
	case stored == nil && presented == nil:
	case stored != nil && presented != nil && *stored == *presented:
	default:
		return domain.ErrTokenMismatch
	}
	if next == nil {
		u.RefreshToken = nil
		return nil
	}
	rt := *next
	u.RefreshToken = &rt
	return nil
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	tokens := token.NewManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(repo, tokens, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), "alice@example.com", "s3cret-pass", "alice")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", result)
	}

	stored := repo.users[result.UserID]
	if stored == nil {
		t.Fatalf("user not persisted")
	}
	if stored.PasswordHash == "s3cret-pass" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != result.RefreshToken {
		t.Fatalf("refresh token not persisted alongside the session")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), "bob@example.com", "password1", "bob"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", "password2", "bobby"); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "carol@example.com", "carol-pass", "carol")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "carol@example.com", "carol-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.UserID != reg.UserID {
		t.Fatalf("login resolved wrong user: %s vs %s", result.UserID, reg.UserID)
	}

	// The login session supersedes the registration session.
	stored := repo.users[result.UserID]
	if stored.RefreshToken == nil || *stored.RefreshToken != result.RefreshToken {
		t.Fatalf("stored refresh token not replaced by login")
	}
	if _, err := svc.Refresh(context.Background(), reg.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected superseded token to mismatch, got %v", err)
	}
}

func TestAuthService_Login_IndistinguishableFailures(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), "dave@example.com", "dave-pass", "dave"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, wrongErr := svc.Login(context.Background(), "dave@example.com", "wrong-pass")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure messages differ, leaking account existence: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "erin@example.com", "erin-pass", "erin")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), reg.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected a full token pair, got %+v", pair)
	}
	if pair.RefreshToken == reg.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	// The rotated-out token is single-use: presenting it again must fail.
	if _, err := svc.Refresh(context.Background(), reg.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch for rotated-out token, got %v", err)
	}

	// The replacement token keeps working.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("replacement token rejected: %v", err)
	}
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	repo := newStubUserRepo()
	expired := token.NewManager("test-secret", time.Hour, -time.Minute)
	svc := NewAuthService(repo, expired, zerolog.Nop())

	reg, err := svc.Register(context.Background(), "frank@example.com", "frank-pass", "frank")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), reg.RefreshToken); !errors.Is(err, token.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestAuthService_Refresh_ForgedSignature(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "grace@example.com", "grace-pass", "grace")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	forger := token.NewManager("other-secret", time.Hour, 24*time.Hour)
	forged, err := forger.IssueRefresh(reg.UserID)
	if err != nil {
		t.Fatalf("issuing forged token: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), forged); !errors.Is(err, token.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), "heidi@example.com", "heidi-pass", "heidi")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.Logout(context.Background(), reg.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if repo.users[reg.UserID].RefreshToken != nil {
		t.Fatalf("stored refresh token not cleared on logout")
	}

	// A still-valid token no longer matches after revocation.
	if _, err := svc.Refresh(context.Background(), reg.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch after logout, got %v", err)
	}

	// Logging out twice is a mismatch as well.
	if err := svc.Logout(context.Background(), reg.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch on double logout, got %v", err)
	}
}
