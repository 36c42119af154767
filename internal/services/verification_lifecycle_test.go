package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
	"accounthub/internal/utils"
)

func newTestLifecycle(t *testing.T) (*VerificationLifecycle, *repositories.MemoryVerificationRepository) {
	t.Helper()
	repo := repositories.NewMemoryVerificationRepository()
	codes := utils.NewCodeGenerator(6)
	return NewVerificationLifecycle(repo, codes, DefaultMaxRetry, DefaultVerifiedExtension), repo
}

func TestCreateOrRegenerateNewRecord(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	ctx := context.Background()

	rec, err := lc.CreateOrRegenerate(ctx, models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)

	assert.NotZero(t, rec.ID)
	assert.Len(t, rec.Code, 6)
	assert.False(t, rec.IsVerified)
	assert.Zero(t, rec.RetryCount)
	assert.True(t, rec.ExpiredAt.After(time.Now()))
}

func TestCreateOrRegeneratePreservesIdentity(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	ctx := context.Background()

	first, err := lc.CreateOrRegenerate(ctx, models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)

	// burn attempts and verify, then regenerate
	burned := first.Missed().Missed().Matched(time.Hour, time.Now())
	_, err = lc.Save(ctx, burned)
	require.NoError(t, err)

	second, err := lc.CreateOrRegenerate(ctx, models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "regenerate must keep the record identity")
	assert.False(t, second.IsVerified)
	assert.Zero(t, second.RetryCount)
}

func TestCreateOrRegenerateSeparateItemsSeparateRecords(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	ctx := context.Background()

	a, err := lc.CreateOrRegenerate(ctx, models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)
	b, err := lc.CreateOrRegenerate(ctx, models.ItemResetPassword, "user@example.com", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "same key under different items must not collide")
}

func TestCheckCodeIsPure(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	rec := models.VerificationRecord{Code: "123456"}

	matched := lc.CheckCode(rec, "123456")
	assert.True(t, matched.IsVerified)

	missed := lc.CheckCode(rec, "000000")
	assert.False(t, missed.IsVerified)
	assert.Equal(t, 1, missed.RetryCount)

	// the input record is unchanged either way
	assert.False(t, rec.IsVerified)
	assert.Zero(t, rec.RetryCount)
}

func TestLoadExpiredRecordInvisible(t *testing.T) {
	lc, repo := newTestLifecycle(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, models.VerificationRecord{
		Item:      models.ItemActivation,
		Key:       "+77001234567",
		Code:      "123456",
		ExpiredAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	rec, err := lc.Load(ctx, models.ItemActivation, "+77001234567")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestIsVerified(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	ctx := context.Background()

	ok, err := lc.IsVerified(ctx, models.ItemRegister, "user@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "missing record reads as unverified")

	rec, err := lc.CreateOrRegenerate(ctx, models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)

	ok, err = lc.IsVerified(ctx, models.ItemRegister, "user@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = lc.Save(ctx, rec.Matched(time.Hour, time.Now()))
	require.NoError(t, err)

	ok, err = lc.IsVerified(ctx, models.ItemRegister, "user@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteIdempotent(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, lc.Delete(ctx, models.ItemProfile, "user@example.com"), "deleting an absent record is a no-op")

	_, err := lc.CreateOrRegenerate(ctx, models.ItemProfile, "user@example.com", time.Hour)
	require.NoError(t, err)

	require.NoError(t, lc.Delete(ctx, models.ItemProfile, "user@example.com"))

	rec, err := lc.Load(ctx, models.ItemProfile, "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLifecycleWithDeterministicCodes(t *testing.T) {
	repo := repositories.NewMemoryVerificationRepository()
	src := bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})
	codes := utils.NewCodeGeneratorWithSource(6, src)
	lc := NewVerificationLifecycle(repo, codes, DefaultMaxRetry, DefaultVerifiedExtension)

	rec, err := lc.CreateOrRegenerate(context.Background(), models.ItemRegister, "user@example.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "123456", rec.Code)
}
