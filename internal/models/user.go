package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"` // never returned to clients
	RoleID       int    `json:"role_id"`

	// set once both activation codes (email + phone) are verified
	IsActive    bool       `json:"is_active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`

	// opaque refresh token state, stored server-side
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
