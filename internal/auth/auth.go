package auth

import (
	"errors"

	"github.com/floatbank/floatbank/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotRegistered = errors.New("email is not registered")
	ErrAccountInactive    = errors.New("account is inactive")

	ErrTokenMissing = errors.New("token not provided")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	*Token
	User *models.User `json:"user"`
}
