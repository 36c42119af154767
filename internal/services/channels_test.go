package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounthub/internal/models"
)

type stubEmailService struct {
	verifyErr error
	sent      []string
}

func (s *stubEmailService) SendVerificationCode(email, code string, expiredAt time.Time) error {
	s.sent = append(s.sent, email)
	return s.verifyErr
}

func (s *stubEmailService) SendWelcomeEmail(email string) error         { return nil }
func (s *stubEmailService) SendPasswordChangedEmail(email string) error { return nil }

func TestEmailChannelSwallowsFailures(t *testing.T) {
	emails := &stubEmailService{verifyErr: errors.New("smtp: connection refused")}
	ch := NewEmailChannel(emails)

	rec := models.VerificationRecord{
		Item: models.ItemRegister,
		Key:  "user@example.com",
		Code: "123456",
	}

	// best-effort: the SMTP error is logged, not returned
	err := ch.Deliver(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"user@example.com"}, emails.sent)
}

func TestEmailChannelDelivers(t *testing.T) {
	emails := &stubEmailService{}
	ch := NewEmailChannel(emails)

	err := ch.Deliver(context.Background(), models.VerificationRecord{Key: "user@example.com", Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user@example.com"}, emails.sent)
}
