// Package audit records and queries the append-only activity trail.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/floatbank/floatbank/internal/metrics"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Log categories
const (
	LogAuth = "Auth"
	LogUser = "User"
)

// Descriptions used by the API handlers
const (
	DescRegistered     = "User registered"
	DescLoggedIn       = "User logged in"
	DescLoginFailed    = "Failed login attempt"
	DescLoggedOut      = "User logged out"
	DescTokenRefreshed = "Token refreshed"
	DescUserCreated    = "Created user"
	DescUserUpdated    = "Updated user"
	DescStatusChanged  = "Changed user status"
	DescUserDeleted    = "Deleted user"
	DescUsersDeleted   = "Bulk deleted users"
)

// ErrInvalidRange is returned when a range query starts after it ends
var ErrInvalidRange = errors.New("start date must not be after end date")

// Entry describes one action to record
type Entry struct {
	LogName     string
	Description string
	// Causer is nil for anonymous actions and failures before authentication.
	Causer  *models.User
	Request Request
	Context Context
}

// FailureDescription prefixes an action with "Failed to"
func FailureDescription(action string) string {
	return "Failed to " + action
}

// Recorder appends to and reads from the activity log
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a recorder over db
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one entry and returns the stored row
func (r *Recorder) Record(ctx context.Context, e Entry) (*models.ActivityLog, error) {
	entry := models.ActivityLog{
		LogName:     e.LogName,
		Description: e.Description,
		Properties:  buildProperties(e.Request, e.Context),
	}
	if e.Causer != nil {
		id := e.Causer.ID
		entry.CauserID = &id
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&entry).Error
	metrics.ObserveAuditWrite(e.LogName, err)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return &entry, nil
}

// Log records e and reports a failed write to the log instead of the caller
func (r *Recorder) Log(ctx context.Context, e Entry) {
	if _, err := r.Record(ctx, e); err != nil {
		slog.Warn("Audit write failed",
			"log_name", e.LogName,
			"description", e.Description,
			"error", err)
	}
}

// CauserSummary is the minimal projection of the acting user
type CauserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Activity is an activity log row with its causer resolved
type Activity struct {
	ID          uint           `json:"id"`
	LogName     string         `json:"log_name"`
	Description string         `json:"description"`
	Causer      *CauserSummary `json:"causer"`
	Properties  map[string]any `json:"properties"`
	CreatedAt   time.Time      `json:"created_at"`
}

// All returns every entry in insertion order
func (r *Recorder) All(ctx context.Context) ([]Activity, error) {
	return r.find(r.db.WithContext(ctx))
}

// ByLogName returns the entries of one category in insertion order
func (r *Recorder) ByLogName(ctx context.Context, logName string) ([]Activity, error) {
	return r.find(r.db.WithContext(ctx).Where("log_name = ?", logName))
}

// Between returns entries created in [start, end) in insertion order
func (r *Recorder) Between(ctx context.Context, start, end time.Time) ([]Activity, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	return r.find(r.db.WithContext(ctx).Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()))
}

func (r *Recorder) find(query *gorm.DB) ([]Activity, error) {
	var logs []models.ActivityLog
	if err := query.Preload("Causer").Order("id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch activity logs: %w", err)
	}

	activities := make([]Activity, len(logs))
	for i, l := range logs {
		activities[i] = Activity{
			ID:          l.ID,
			LogName:     l.LogName,
			Description: l.Description,
			Properties:  l.Properties,
			CreatedAt:   l.CreatedAt,
		}
		if l.Causer != nil {
			activities[i].Causer = &CauserSummary{
				ID:    l.Causer.ID,
				Name:  l.Causer.Name,
				Email: l.Causer.Email,
			}
		}
	}
	return activities, nil
}
