package models

import (
	"regexp"
	"time"
)

// VerificationItem is the purpose a code was issued for. It is half of
// the lookup key: at most one live record exists per (item, key).
type VerificationItem string

const (
	ItemRegister       VerificationItem = "REGISTER"
	ItemResetPassword  VerificationItem = "RESET_PASSWORD"
	ItemUpdatePassword VerificationItem = "UPDATE_PASSWORD"
	ItemActivation     VerificationItem = "ACTIVATION"
	ItemProfile        VerificationItem = "PROFILE"
)

func (i VerificationItem) Valid() bool {
	switch i {
	case ItemRegister, ItemResetPassword, ItemUpdatePassword, ItemActivation, ItemProfile:
		return true
	}
	return false
}

// VerificationRecord is a single issued code bound to a contact key.
// The struct is treated as an immutable value: transitions return a copy,
// persisting the copy is a separate step. That keeps the state machine
// testable without a database.
type VerificationRecord struct {
	ID         int64            `json:"id"`
	Item       VerificationItem `json:"item"`
	Key        string           `json:"key"`
	Code       string           `json:"-"` // never serialized
	IsVerified bool             `json:"is_verified"`
	RetryCount int              `json:"retry_count"`
	ExpiredAt  time.Time        `json:"expired_at"`
	CreatedAt  time.Time        `json:"created_at"`
	ModifiedAt time.Time        `json:"modified_at"`
}

// Regenerated re-issues the record in place: same identity, fresh code,
// attempts and verified flag reset, expiry restarted from now.
func (r VerificationRecord) Regenerated(code string, ttl time.Duration, now time.Time) VerificationRecord {
	r.Code = code
	r.IsVerified = false
	r.RetryCount = 0
	r.ExpiredAt = now.Add(ttl)
	return r
}

// Matched marks the record verified and extends its expiry so the
// consuming flow has a window to read the flag before cleanup.
func (r VerificationRecord) Matched(extension time.Duration, now time.Time) VerificationRecord {
	r.IsVerified = true
	r.ExpiredAt = now.Add(extension)
	return r
}

// Missed burns one attempt. A mismatch always leaves the record
// unverified, even when a previous attempt had verified it.
func (r VerificationRecord) Missed() VerificationRecord {
	r.IsVerified = false
	r.RetryCount++
	return r
}

func (r VerificationRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiredAt)
}

// VerificationChannel selects how a code reaches the contact key.
type VerificationChannel string

const (
	ChannelEmail VerificationChannel = "email"
	ChannelSMS   VerificationChannel = "sms"
)

// VerificationType is the per-channel delivery policy: how long a code
// lives, what the contact key must look like, and which request field
// the key arrives in (used in validation error messages).
type VerificationType struct {
	Channel VerificationChannel
	TTL     time.Duration
	Pattern *regexp.Regexp
	Field   string
}

var (
	emailKeyPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneKeyPattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

var verificationTypes = map[VerificationChannel]VerificationType{
	ChannelEmail: {Channel: ChannelEmail, TTL: time.Hour, Pattern: emailKeyPattern, Field: "email"},
	ChannelSMS:   {Channel: ChannelSMS, TTL: 5 * time.Minute, Pattern: phoneKeyPattern, Field: "phone"},
}

// TypeFor returns the delivery policy for a channel. A positive ttl
// overrides the built-in default (configured per deployment).
func TypeFor(channel VerificationChannel, ttl time.Duration) (VerificationType, bool) {
	vt, ok := verificationTypes[channel]
	if !ok {
		return VerificationType{}, false
	}
	if ttl > 0 {
		vt.TTL = ttl
	}
	return vt, true
}
