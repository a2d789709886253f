package service

import (
	"io"

	"github.com/floatbank/floatbank/internal/models"
)

// CreateUserInput carries a validated registration or admin-create request
type CreateUserInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	// Image is an optional profile picture.
	Image io.Reader
}

// UpdateUserInput carries a partial update; nil fields are left untouched
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
	Image    io.Reader
}

// UserChange is the state of a user around a mutation
type UserChange struct {
	Before *models.User
	After  *models.User
}
