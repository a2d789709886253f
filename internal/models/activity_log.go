package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrActivityLogImmutable is returned when something tries to rewrite the audit trail
var ErrActivityLogImmutable = errors.New("activity logs are append-only")

// ActivityLog is one entry in the append-only audit trail.
// CauserID is a weak reference: it is not constrained, so deleting the
// user keeps the entry and the causer simply resolves to null.
type ActivityLog struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	LogName     string         `gorm:"not null;index" json:"log_name"` // e.g., "Auth", "User"
	Description string         `gorm:"type:text;not null" json:"description"`
	CauserID    *uuid.UUID     `gorm:"type:text;index" json:"causer_id"`
	Causer      *User          `gorm:"foreignKey:CauserID" json:"-"`
	Properties  map[string]any `gorm:"serializer:json;type:text" json:"properties"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// BeforeCreate stamps the creation time once
func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = tx.NowFunc()
	}
	return nil
}

// BeforeUpdate rejects any modification of an existing entry
func (l *ActivityLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrActivityLogImmutable
}

// BeforeDelete rejects removal of an existing entry
func (l *ActivityLog) BeforeDelete(tx *gorm.DB) error {
	return ErrActivityLogImmutable
}
