package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus represents whether an account may sign in
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Valid reports whether s is a known status
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User represents a system user
type User struct {
	ID           uuid.UUID  `gorm:"type:text;primary_key" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"uniqueIndex;not null" json:"phone"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Status       UserStatus `gorm:"not null;default:'active'" json:"status"`
	ImageURL     string     `json:"image_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// IsActive reports whether the user may authenticate
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
