package models

import (
	"strings"
	"time"
)

// SignupRequest registers another dashboard operator.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// NormalizeEmail folds an operator email to the form stored in users.email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminUser is a dashboard operator account. Visitors never have one; their
// identity is the anonymous session id.
type AdminUser struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	HashedPassword []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AuthResponse is the body of a successful signup or login. Token is only
// set on login and mirrors the jwt_token cookie for API clients.
type AuthResponse struct {
	Message   string `json:"message"`
	UserEmail string `json:"user_email"`
	Token     string `json:"token,omitempty"`
}
