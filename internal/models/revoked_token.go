package models

import "time"

// RevokedToken records an invalidated bearer token until it would have expired anyway
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:text" json:"jti"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
