package services

import "errors"

// Domain error kinds raised by the verification facade. Store and
// infrastructure errors are not wrapped into these; they propagate
// unchanged to the caller.
var (
	// no live record for (item, key)
	ErrVerificationNotFound = errors.New("verification not found")
	// retry ceiling already reached; the code is not even compared
	ErrRetryLimitExceeded = errors.New("verification retry limit exceeded")
	// code compared and did not match; the burned attempt is persisted
	ErrCodeMismatch = errors.New("verification code mismatch")
	// SMS gateway rejected the message or the connection pool timed out
	ErrDeliveryFailed = errors.New("verification message delivery failed")
	// contact key does not match the channel's format pattern
	ErrValidationFailed = errors.New("contact key validation failed")
)
