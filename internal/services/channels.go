package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"accounthub/internal/models"
	"accounthub/internal/utils"
)

// DeliveryChannel gets a freshly persisted code to its contact key.
// The record is already saved when Deliver runs; a failed delivery never
// rolls it back. The ctx bounds dispatch where the transport supports
// it (the SMS gateway); SMTP sends are not cancellable.
type DeliveryChannel interface {
	Deliver(ctx context.Context, rec models.VerificationRecord) error
}

// emailChannel sends the code over SMTP. Delivery is best-effort:
// failures are logged, not returned, so an SMTP outage does not fail the
// request that issued the code.
type emailChannel struct {
	emails EmailService
}

func NewEmailChannel(emails EmailService) DeliveryChannel {
	return &emailChannel{emails: emails}
}

func (c *emailChannel) Deliver(ctx context.Context, rec models.VerificationRecord) error {
	if err := c.emails.SendVerificationCode(rec.Key, rec.Code, rec.ExpiredAt); err != nil {
		log.WithFields(log.Fields{"item": rec.Item, "key": rec.Key}).
			Warnf("[verify][email] delivery failed: %v", err)
	}
	return nil
}

// smsChannel sends the code through the HTTP gateway. Unlike email, a
// gateway rejection or pool timeout is returned to the caller.
type smsChannel struct {
	client *utils.SMSClient
}

func NewSMSChannel(client *utils.SMSClient) DeliveryChannel {
	return &smsChannel{client: client}
}

func (c *smsChannel) Deliver(ctx context.Context, rec models.VerificationRecord) error {
	text := fmt.Sprintf("Verification code: %s", rec.Code)
	resp, err := c.client.SendSMS(ctx, rec.Key, text)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"item": rec.Item, "key": rec.Key, "message_id": resp.Data.MessageID}).
		Info("[verify][sms] sent")
	return nil
}
