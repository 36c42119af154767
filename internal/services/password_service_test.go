package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
)

type passwordFixture struct {
	passwords PasswordService
	users     UserService
	userRepo  *repositories.MemoryUserRepository
	verify    *verifyFixture
	auth      AuthService
}

func newPasswordFixture(t *testing.T) *passwordFixture {
	t.Helper()
	vf := newVerifyFixture(t)
	userRepo := repositories.NewMemoryUserRepository()
	auth := NewAuthService()
	emails := &stubEmailService{}
	return &passwordFixture{
		passwords: NewPasswordService(userRepo, vf.svc, emails, auth),
		users:     NewUserService(userRepo, vf.svc, emails, auth),
		userRepo:  userRepo,
		verify:    vf,
		auth:      auth,
	}
}

func (f *passwordFixture) register(t *testing.T) *models.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), "user@example.com", "+77001234567", "oldpass99", 10)
	require.NoError(t, err)
	return user
}

func (f *passwordFixture) lastEmailCode() string {
	return f.verify.email.delivered[len(f.verify.email.delivered)-1].Code
}

func TestResetPasswordFlow(t *testing.T) {
	f := newPasswordFixture(t)
	user := f.register(t)
	ctx := context.Background()

	require.NoError(t, f.passwords.RequestReset(ctx, "user@example.com"))
	code := f.lastEmailCode()

	require.NoError(t, f.passwords.ResetPassword(ctx, "user@example.com", code, "newpass99"))

	stored, err := f.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, f.auth.CheckPassword(stored.PasswordHash, "newpass99"))
	assert.False(t, f.auth.CheckPassword(stored.PasswordHash, "oldpass99"))

	// the code is consumed with the reset
	err = f.passwords.ResetPassword(ctx, "user@example.com", code, "anotherpass")
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestRequestResetUnknownEmailDoesNotLeak(t *testing.T) {
	f := newPasswordFixture(t)

	require.NoError(t, f.passwords.RequestReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, f.verify.email.delivered, "no code issued for unknown accounts")
}

func TestResetPasswordWrongCode(t *testing.T) {
	f := newPasswordFixture(t)
	f.register(t)
	ctx := context.Background()

	require.NoError(t, f.passwords.RequestReset(ctx, "user@example.com"))
	code := f.lastEmailCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	err := f.passwords.ResetPassword(ctx, "user@example.com", wrong, "newpass99")
	require.ErrorIs(t, err, ErrCodeMismatch)

	// the right code still works afterwards
	require.NoError(t, f.passwords.ResetPassword(ctx, "user@example.com", code, "newpass99"))
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	f := newPasswordFixture(t)
	f.register(t)

	err := f.passwords.ResetPassword(context.Background(), "user@example.com", "123456", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
}

func TestUpdatePasswordFlow(t *testing.T) {
	f := newPasswordFixture(t)
	user := f.register(t)
	ctx := context.Background()

	require.NoError(t, f.passwords.RequestPasswordUpdate(ctx, user.ID))
	code := f.lastEmailCode()

	require.NoError(t, f.passwords.UpdatePassword(ctx, user.ID, code, "updated99"))

	stored, err := f.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, f.auth.CheckPassword(stored.PasswordHash, "updated99"))
}

func TestRequestPasswordUpdateUnknownUser(t *testing.T) {
	f := newPasswordFixture(t)

	err := f.passwords.RequestPasswordUpdate(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
