package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrPhoneAlreadyRegistered = errors.New("phone already registered")
	ErrActivationIncomplete   = errors.New("email and phone must both be verified")
	ErrUserNotFound           = errors.New("user not found")
)

type UserService interface {
	// registration and activation, built on the verification engine
	Register(ctx context.Context, email, phone, plainPassword string, roleID int) (*models.User, error)
	Activate(ctx context.Context, email, phone string) (*models.User, error)

	// profile contact change: code goes to the NEW contact
	RequestContactChange(ctx context.Context, userID int, channel models.VerificationChannel, newKey string) error
	ConfirmContactChange(ctx context.Context, userID int, channel models.VerificationChannel, newKey, code string) error

	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id int) error
	ListUsers(limit, offset int) ([]*models.User, error)
	GetUserCount() (int, error)

	// refresh helpers for the auth handler
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userService struct {
	repo          repositories.UserRepository
	verifications VerificationService
	emails        EmailService
	auth          AuthService
}

func NewUserService(repo repositories.UserRepository, verifications VerificationService, emails EmailService, auth AuthService) UserService {
	return &userService{
		repo:          repo,
		verifications: verifications,
		emails:        emails,
		auth:          auth,
	}
}

// Register creates an inactive account and issues ACTIVATION codes for
// both contact keys. The account is kept even when SMS dispatch fails:
// the codes are already persisted and can be re-sent.
func (s *userService) Register(ctx context.Context, email, phone, plainPassword string, roleID int) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)

	if existing, err := s.repo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if existing, err := s.repo.GetByPhone(phone); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrPhoneAlreadyRegistered
	}

	hash, err := s.auth.HashPassword(plainPassword)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	if _, err := s.verifications.SendVerificationMessage(ctx, models.ItemActivation, models.ChannelEmail, VerificationPayload{Key: email}); err != nil {
		return user, fmt.Errorf("send activation email code: %w", err)
	}
	if _, err := s.verifications.SendVerificationMessage(ctx, models.ItemActivation, models.ChannelSMS, VerificationPayload{Key: phone}); err != nil {
		return user, fmt.Errorf("send activation sms code: %w", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID}).Info("[users][register] account created, activation codes sent")
	return user, nil
}

// Activate flips the account on once both ACTIVATION records are
// verified, then deletes them — the verified state is consumed here.
func (s *userService) Activate(ctx context.Context, email, phone string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Phone != phone {
		return nil, ErrUserNotFound
	}

	emailOK, err := s.verifications.IsVerified(ctx, models.ItemActivation, email)
	if err != nil {
		return nil, err
	}
	phoneOK, err := s.verifications.IsVerified(ctx, models.ItemActivation, phone)
	if err != nil {
		return nil, err
	}
	if !emailOK || !phoneOK {
		return nil, ErrActivationIncomplete
	}

	if err := s.repo.Activate(user.ID); err != nil {
		return nil, err
	}
	if err := s.verifications.DeleteVerification(ctx, models.ItemActivation, email); err != nil {
		return nil, err
	}
	if err := s.verifications.DeleteVerification(ctx, models.ItemActivation, phone); err != nil {
		return nil, err
	}

	if err := s.emails.SendWelcomeEmail(email); err != nil {
		// warn but do not fail activation
		log.WithFields(log.Fields{"user_id": user.ID}).Warnf("[users][activate] welcome email failed: %v", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID}).Info("[users][activate] account activated")
	return s.repo.GetByID(user.ID)
}

func (s *userService) RequestContactChange(ctx context.Context, userID int, channel models.VerificationChannel, newKey string) error {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	_, err = s.verifications.SendVerificationMessage(ctx, models.ItemProfile, channel, VerificationPayload{Key: newKey})
	return err
}

func (s *userService) ConfirmContactChange(ctx context.Context, userID int, channel models.VerificationChannel, newKey, code string) error {
	if err := s.verifications.CheckVerification(ctx, models.ItemProfile, VerificationPayload{Key: newKey, Code: code}); err != nil {
		return err
	}

	switch channel {
	case models.ChannelEmail:
		err := s.repo.UpdateEmail(userID, strings.TrimSpace(strings.ToLower(newKey)))
		if err != nil {
			return err
		}
	case models.ChannelSMS:
		if err := s.repo.UpdatePhone(userID, newKey); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown channel %q", ErrValidationFailed, channel)
	}

	log.WithFields(log.Fields{"user_id": userID, "channel": channel}).Info("[users][contact-change] confirmed")
	return s.verifications.DeleteVerification(ctx, models.ItemProfile, newKey)
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int) error {
	return s.repo.Delete(id)
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}

func (s *userService) GetUserCount() (int, error) {
	return s.repo.GetCount()
}

func (s *userService) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(userID, token, expiresAt)
}

func (s *userService) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return s.repo.RotateRefresh(oldToken, newToken, newExpiresAt)
}

func (s *userService) ClearRefresh(userID int) error {
	return s.repo.ClearRefresh(userID)
}

func (s *userService) GetByRefreshToken(token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(token)
}
