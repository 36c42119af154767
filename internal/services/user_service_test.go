package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
	"accounthub/internal/utils"
)

type accountFixture struct {
	users    UserService
	userRepo *repositories.MemoryUserRepository
	verify   *verifyFixture
	emails   *stubEmailService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	vf := newVerifyFixture(t)
	userRepo := repositories.NewMemoryUserRepository()
	emails := &stubEmailService{}
	users := NewUserService(userRepo, vf.svc, emails, NewAuthService())
	return &accountFixture{users: users, userRepo: userRepo, verify: vf, emails: emails}
}

func (f *accountFixture) checkCode(t *testing.T, item models.VerificationItem, key, code string) {
	t.Helper()
	require.NoError(t, f.verify.svc.CheckVerification(context.Background(), item,
		VerificationPayload{Key: key, Code: code}))
}

func TestRegisterAndActivate(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, "User@Example.com", "+77001234567", "s3cret99", 10)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user@example.com", user.Email, "email normalized")
	assert.False(t, user.IsActive)
	require.Len(t, f.verify.email.delivered, 1)
	require.Len(t, f.verify.sms.delivered, 1)

	// activation requires both codes checked
	_, err = f.users.Activate(ctx, "user@example.com", "+77001234567")
	require.ErrorIs(t, err, ErrActivationIncomplete)

	f.checkCode(t, models.ItemActivation, "user@example.com", f.verify.email.delivered[0].Code)

	_, err = f.users.Activate(ctx, "user@example.com", "+77001234567")
	require.ErrorIs(t, err, ErrActivationIncomplete)

	f.checkCode(t, models.ItemActivation, "+77001234567", f.verify.sms.delivered[0].Code)

	activated, err := f.users.Activate(ctx, "user@example.com", "+77001234567")
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	require.NotNil(t, activated.ActivatedAt)

	// activation consumed both verification records
	ok, err := f.verify.svc.IsVerified(ctx, models.ItemActivation, "user@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterDuplicateContact(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "user@example.com", "+77001234567", "s3cret99", 10)
	require.NoError(t, err)

	_, err = f.users.Register(ctx, "user@example.com", "+77009999999", "s3cret99", 10)
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)

	_, err = f.users.Register(ctx, "other@example.com", "+77001234567", "s3cret99", 10)
	require.ErrorIs(t, err, ErrPhoneAlreadyRegistered)
}

func TestRegisterKeepsAccountOnSMSFailure(t *testing.T) {
	f := newAccountFixture(t)
	f.verify.sms.err = errors.New("gateway timeout")
	ctx := context.Background()

	user, err := f.users.Register(ctx, "user@example.com", "+77001234567", "s3cret99", 10)
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.NotNil(t, user, "account survives the failed dispatch")

	stored, err := f.userRepo.GetByEmail("user@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)

	// the SMS code was issued before dispatch failed
	f.checkCode(t, models.ItemActivation, "+77001234567", f.verify.sms.delivered[0].Code)
}

func TestContactChangeFlow(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, "user@example.com", "+77001234567", "s3cret99", 10)
	require.NoError(t, err)

	require.NoError(t, f.users.RequestContactChange(ctx, user.ID, models.ChannelEmail, "new@example.com"))
	code := f.verify.email.delivered[len(f.verify.email.delivered)-1].Code

	// wrong code does not change anything
	err = f.users.ConfirmContactChange(ctx, user.ID, models.ChannelEmail, "new@example.com", "000000")
	if code == "000000" {
		t.Skip("generated code collided with the deliberate wrong guess")
	}
	require.ErrorIs(t, err, ErrCodeMismatch)

	require.NoError(t, f.users.ConfirmContactChange(ctx, user.ID, models.ChannelEmail, "new@example.com", code))

	updated, err := f.users.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
}

func TestActivateUnknownAccount(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.users.Activate(context.Background(), "nobody@example.com", "+77001234567")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshRotation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, "user@example.com", "+77001234567", "s3cret99", 10)
	require.NoError(t, err)

	first, err := utils.NewRefreshToken(32)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdateRefresh(user.ID, first, time.Now().Add(time.Hour)))

	second, err := utils.NewRefreshToken(32)
	require.NoError(t, err)
	rotated, err := f.users.RotateRefresh(first, second, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rotated)
	assert.Equal(t, user.ID, rotated.ID)

	// the old token is spent
	stale, err := f.users.RotateRefresh(first, "whatever", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, stale)

	require.NoError(t, f.users.ClearRefresh(user.ID))
	gone, err := f.users.GetByRefreshToken(second)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
