package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"accounthub/internal/models"
)

// VerificationPayload is the caller-facing contact payload: the key
// being verified and, for checks, the supplied code.
type VerificationPayload struct {
	Key  string `json:"key"`
	Code string `json:"code,omitempty"`
}

// VerificationService is the facade over the lifecycle and the delivery
// channels. It routes by channel, enforces the retry ceiling and
// translates outcomes into the sentinel error kinds in errors.go.
type VerificationService interface {
	SendVerificationMessage(ctx context.Context, item models.VerificationItem, channel models.VerificationChannel, payload VerificationPayload) (models.VerificationRecord, error)
	CheckVerification(ctx context.Context, item models.VerificationItem, payload VerificationPayload) error
	IsVerified(ctx context.Context, item models.VerificationItem, key string) (bool, error)
	DeleteVerification(ctx context.Context, item models.VerificationItem, key string) error
}

type verificationService struct {
	lifecycle *VerificationLifecycle
	channels  map[models.VerificationChannel]DeliveryChannel
	ttls      map[models.VerificationChannel]time.Duration // per-deployment TTL overrides
}

func NewVerificationService(lifecycle *VerificationLifecycle, email, sms DeliveryChannel, ttls map[models.VerificationChannel]time.Duration) VerificationService {
	return &verificationService{
		lifecycle: lifecycle,
		channels: map[models.VerificationChannel]DeliveryChannel{
			models.ChannelEmail: email,
			models.ChannelSMS:   sms,
		},
		ttls: ttls,
	}
}

// SendVerificationMessage issues (or re-issues) a code and dispatches it
// through the channel's sender. The record is persisted before dispatch,
// so a delivery failure leaves an issued-but-undelivered code behind —
// callers see ErrDeliveryFailed but a later check against that code
// still works.
func (s *verificationService) SendVerificationMessage(ctx context.Context, item models.VerificationItem, channel models.VerificationChannel, payload VerificationPayload) (models.VerificationRecord, error) {
	vt, ok := models.TypeFor(channel, s.ttls[channel])
	if !ok {
		return models.VerificationRecord{}, fmt.Errorf("%w: unknown channel %q", ErrValidationFailed, channel)
	}
	if !vt.Pattern.MatchString(payload.Key) {
		return models.VerificationRecord{}, fmt.Errorf("%w: invalid %s format", ErrValidationFailed, vt.Field)
	}

	rec, err := s.lifecycle.CreateOrRegenerate(ctx, item, payload.Key, vt.TTL)
	if err != nil {
		return models.VerificationRecord{}, err
	}

	if err := s.channels[channel].Deliver(ctx, rec); err != nil {
		log.WithFields(log.Fields{"item": item, "channel": channel, "key": payload.Key}).
			Warnf("[verify][send] delivery failed: %v", err)
		return rec, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return rec, nil
}

// CheckVerification compares the supplied code against the live record.
// Exactly one store read and one store write happen on the compare path;
// the retry-ceiling rejection writes nothing.
func (s *verificationService) CheckVerification(ctx context.Context, item models.VerificationItem, payload VerificationPayload) error {
	rec, err := s.lifecycle.Load(ctx, item, payload.Key)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrVerificationNotFound
	}
	if rec.RetryCount >= s.lifecycle.MaxRetry() {
		return ErrRetryLimitExceeded
	}

	updated := s.lifecycle.CheckCode(*rec, payload.Code)
	if _, err := s.lifecycle.Save(ctx, updated); err != nil {
		return err
	}
	if !updated.IsVerified {
		return ErrCodeMismatch
	}
	return nil
}

func (s *verificationService) IsVerified(ctx context.Context, item models.VerificationItem, key string) (bool, error) {
	return s.lifecycle.IsVerified(ctx, item, key)
}

func (s *verificationService) DeleteVerification(ctx context.Context, item models.VerificationItem, key string) error {
	return s.lifecycle.Delete(ctx, item, key)
}
