package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
)

// PasswordService drives the two password flows that consume the
// verification engine: anonymous reset (RESET_PASSWORD code to the
// account email) and authenticated update (UPDATE_PASSWORD code).
type PasswordService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error

	RequestPasswordUpdate(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, code, newPassword string) error
}

type passwordService struct {
	userRepo      repositories.UserRepository
	verifications VerificationService
	emails        EmailService
	auth          AuthService
}

func NewPasswordService(userRepo repositories.UserRepository, verifications VerificationService, emails EmailService, auth AuthService) PasswordService {
	return &passwordService{
		userRepo:      userRepo,
		verifications: verifications,
		emails:        emails,
		auth:          auth,
	}
}

// RequestReset issues a RESET_PASSWORD code to the account email.
// Unknown emails are not reported to the caller.
func (s *passwordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil || user == nil {
		// don't leak account existence
		log.WithFields(log.Fields{"email": email}).Infof("[password][reset] request for unknown email: %v", err)
		return nil
	}

	_, err = s.verifications.SendVerificationMessage(ctx, models.ItemResetPassword, models.ChannelEmail, VerificationPayload{Key: email})
	return err
}

func (s *passwordService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.verifications.CheckVerification(ctx, models.ItemResetPassword, VerificationPayload{Key: email, Code: code}); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return err
	}
	if err := s.verifications.DeleteVerification(ctx, models.ItemResetPassword, email); err != nil {
		return err
	}

	if err := s.emails.SendPasswordChangedEmail(email); err != nil {
		log.WithFields(log.Fields{"user_id": user.ID}).Warnf("[password][reset] notification email failed: %v", err)
	}
	log.WithFields(log.Fields{"user_id": user.ID}).Info("[password][reset] password reset")
	return nil
}

// RequestPasswordUpdate sends an UPDATE_PASSWORD code to the email of an
// already-authenticated account.
func (s *passwordService) RequestPasswordUpdate(ctx context.Context, userID int) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	_, err = s.verifications.SendVerificationMessage(ctx, models.ItemUpdatePassword, models.ChannelEmail, VerificationPayload{Key: user.Email})
	return err
}

func (s *passwordService) UpdatePassword(ctx context.Context, userID int, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.verifications.CheckVerification(ctx, models.ItemUpdatePassword, VerificationPayload{Key: user.Email, Code: code}); err != nil {
		return err
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return err
	}
	if err := s.verifications.DeleteVerification(ctx, models.ItemUpdatePassword, user.Email); err != nil {
		return err
	}

	if err := s.emails.SendPasswordChangedEmail(user.Email); err != nil {
		log.WithFields(log.Fields{"user_id": user.ID}).Warnf("[password][update] notification email failed: %v", err)
	}
	return nil
}

func validatePassword(p string) error {
	if len(strings.TrimSpace(p)) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
