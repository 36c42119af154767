package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegeneratedKeepsIdentityResetsState(t *testing.T) {
	now := time.Now()
	rec := VerificationRecord{
		ID:         7,
		Item:       ItemRegister,
		Key:        "user@example.com",
		Code:       "111111",
		IsVerified: true,
		RetryCount: 3,
		ExpiredAt:  now.Add(-time.Minute),
	}

	out := rec.Regenerated("222222", time.Hour, now)

	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, ItemRegister, out.Item)
	assert.Equal(t, "user@example.com", out.Key)
	assert.Equal(t, "222222", out.Code)
	assert.False(t, out.IsVerified)
	assert.Zero(t, out.RetryCount)
	assert.Equal(t, now.Add(time.Hour), out.ExpiredAt)

	// the receiver is untouched
	assert.Equal(t, "111111", rec.Code)
	assert.True(t, rec.IsVerified)
}

func TestMatchedExtendsExpiry(t *testing.T) {
	now := time.Now()
	rec := VerificationRecord{Code: "123456", ExpiredAt: now.Add(2 * time.Minute)}

	out := rec.Matched(time.Hour, now)

	assert.True(t, out.IsVerified)
	assert.Equal(t, now.Add(time.Hour), out.ExpiredAt)
	assert.False(t, rec.IsVerified)
}

func TestMissedBurnsOneAttempt(t *testing.T) {
	rec := VerificationRecord{RetryCount: 2}

	out := rec.Missed()

	assert.Equal(t, 3, out.RetryCount)
	assert.Equal(t, 2, rec.RetryCount)
}

func TestMissedClearsVerified(t *testing.T) {
	rec := VerificationRecord{IsVerified: true, RetryCount: 0}

	out := rec.Missed()

	assert.False(t, out.IsVerified, "a mismatch must drop the record back to unverified")
	assert.Equal(t, 1, out.RetryCount)
}

func TestExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, VerificationRecord{ExpiredAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, VerificationRecord{ExpiredAt: now.Add(time.Second)}.Expired(now))
}

func TestItemValid(t *testing.T) {
	for _, item := range []VerificationItem{ItemRegister, ItemResetPassword, ItemUpdatePassword, ItemActivation, ItemProfile} {
		assert.True(t, item.Valid(), string(item))
	}
	assert.False(t, VerificationItem("DELETE_ACCOUNT").Valid())
	assert.False(t, VerificationItem("").Valid())
}

func TestTypeForDefaultsAndOverride(t *testing.T) {
	email, ok := TypeFor(ChannelEmail, 0)
	require.True(t, ok)
	assert.Equal(t, time.Hour, email.TTL)
	assert.Equal(t, "email", email.Field)

	sms, ok := TypeFor(ChannelSMS, 0)
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, sms.TTL)
	assert.Equal(t, "phone", sms.Field)

	short, ok := TypeFor(ChannelSMS, 90*time.Second)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, short.TTL)

	_, ok = TypeFor(VerificationChannel("carrier-pigeon"), 0)
	assert.False(t, ok)
}

func TestKeyPatterns(t *testing.T) {
	email, _ := TypeFor(ChannelEmail, 0)
	assert.True(t, email.Pattern.MatchString("user@example.com"))
	assert.False(t, email.Pattern.MatchString("not-an-email"))
	assert.False(t, email.Pattern.MatchString("user@@example.com"))

	sms, _ := TypeFor(ChannelSMS, 0)
	assert.True(t, sms.Pattern.MatchString("+77001234567"))
	assert.True(t, sms.Pattern.MatchString("87001234567"))
	assert.False(t, sms.Pattern.MatchString("12345"))
	assert.False(t, sms.Pattern.MatchString("+7700123abc"))
}
