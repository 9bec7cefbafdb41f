package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bugtracker/internal/config"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/repository"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = "user-" + user.Email
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByTeam(_ context.Context, teamID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			result = append(result, *user)
		}
	}
	return result, nil
}

type fakeResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
	used   map[string]bool
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	token.ID = "reset-" + token.Token
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	found, ok := r.tokens[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return found, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.used[id] = true
	return nil
}

type fakeDenylist struct {
	denied map[string]time.Duration
}

func (d *fakeDenylist) Deny(_ context.Context, tokenID string, ttl time.Duration) error {
	d.denied[tokenID] = ttl
	return nil
}

func (d *fakeDenylist) IsDenied(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.denied[tokenID]
	return ok, nil
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeResetRepo, *fakeDenylist) {
	users := &fakeUserRepo{users: map[string]*domain.User{}}
	resets := &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}, used: map[string]bool{}}
	denylist := &fakeDenylist{denied: map[string]time.Duration{}}

	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 60
	cfg.Auth.BcryptCost = 4
	cfg.Auth.PasswordResetTTLMinutes = 30

	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		Denylist:          denylist,
	})
	return svc, users, resets, denylist
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	user, token, exp, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc, users, _, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "short")
	assertErrorCode(t, err, "VALIDATION_FAILED")
	assert.Empty(t, users.users)
}

func TestChangePassword_RejectsShortPassword(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	user, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "tiny")
	assertErrorCode(t, err, "VALIDATION_FAILED")

	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "s3cret-pass")
	require.NoError(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, _, err = svc.Register(context.Background(), "Other", "sam@example.com", "another-pass")
	assertErrorCode(t, err, "CONFLICT")
}

func TestLogin(t *testing.T) {
	svc, users, _, _ := newAuthFixture()
	registered, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	user, token, _, err := svc.Login(context.Background(), "sam@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "wrong")
	assertErrorCode(t, err, "UNAUTHORIZED")

	_, _, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	assertErrorCode(t, err, "UNAUTHORIZED")

	users.users[registered.ID].Status = domain.UserStatusSuspended
	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "s3cret-pass")
	assertErrorCode(t, err, "FORBIDDEN")
}

func TestLogout_DeniesTokenUntilExpiry(t *testing.T) {
	svc, _, _, denylist := newAuthFixture()

	require.NoError(t, svc.Logout(context.Background(), "token-123", time.Now().Add(time.Hour)))

	denied, err := denylist.IsDenied(context.Background(), "token-123")
	require.NoError(t, err)
	assert.True(t, denied)
	assert.Greater(t, denylist.denied["token-123"], 55*time.Minute)
	assert.LessOrEqual(t, denylist.denied["token-123"], time.Hour)
}

func TestLogout_NoExpiryFallsBackToADay(t *testing.T) {
	svc, _, _, denylist := newAuthFixture()

	require.NoError(t, svc.Logout(context.Background(), "token-456", time.Time{}))
	assert.Equal(t, 24*time.Hour, denylist.denied["token-456"])
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, resets, _ := newAuthFixture()
	_, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), "sam@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), token.Token, "new-pass"))
	assert.True(t, resets.used[token.ID])

	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "new-pass")
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "s3cret-pass")
	assertErrorCode(t, err, "UNAUTHORIZED")
}

func TestConfirmPasswordReset_ExpiredToken(t *testing.T) {
	svc, _, resets, _ := newAuthFixture()
	_, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(context.Background(), "sam@example.com")
	require.NoError(t, err)
	resets.tokens[token.Token].ExpiresAt = time.Now().Add(-time.Minute)

	err = svc.ConfirmPasswordReset(context.Background(), token.Token, "new-pass")
	assertErrorCode(t, err, "VALIDATION_FAILED")
}

func TestSetRole(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	user, _, _, err := svc.Register(context.Background(), "Sam", "sam@example.com", "s3cret-pass")
	require.NoError(t, err)

	promoted, err := svc.SetRole(context.Background(), user.ID, domain.RoleProfessor)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProfessor, promoted.Role)

	_, err = svc.SetRole(context.Background(), user.ID, "SUPERUSER")
	assertErrorCode(t, err, "VALIDATION_FAILED")

	_, err = svc.SetRole(context.Background(), "missing-user", domain.RoleAdmin)
	assertErrorCode(t, err, "NOT_FOUND")
}
