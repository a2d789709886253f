package audit

import (
	"github.com/floatbank/floatbank/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Request is the caller context attached to every record
type Request struct {
	IPAddress string
	UserAgent string
}

// RequestFrom extracts the caller IP and user agent from a Gin request
func RequestFrom(c *gin.Context) Request {
	return Request{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Context is the operation-specific part of a record's properties.
// The set of implementations is closed; Fields is the open fallback.
type Context interface {
	apply(props map[string]any)
}

// Login identifies an authentication attempt by the email it used
type Login struct {
	Email string
}

func (l Login) apply(props map[string]any) {
	props["email"] = l.Email
}

// Account identifies the account an action was about
type Account struct {
	UserID uuid.UUID
	Email  string
}

func (a Account) apply(props map[string]any) {
	props["user_id"] = a.UserID.String()
	if a.Email != "" {
		props["email"] = a.Email
	}
}

// StatusChange records a status transition
type StatusChange struct {
	UserID    uuid.UUID
	OldStatus models.UserStatus
	NewStatus models.UserStatus
}

func (s StatusChange) apply(props map[string]any) {
	props["user_id"] = s.UserID.String()
	props["old_status"] = string(s.OldStatus)
	props["new_status"] = string(s.NewStatus)
}

// Change carries full snapshots around an update or delete.
// Before is nil for creations, After is nil for deletions.
type Change struct {
	UserID uuid.UUID
	Before *UserSnapshot
	After  *UserSnapshot
}

func (c Change) apply(props map[string]any) {
	props["user_id"] = c.UserID.String()
	if c.Before != nil {
		props["old"] = c.Before.fields()
	}
	if c.After != nil {
		props["attributes"] = c.After.fields()
	}
}

// BulkDelete records a multi-row deletion
type BulkDelete struct {
	IDs     []uuid.UUID
	Deleted []UserSnapshot
}

func (b BulkDelete) apply(props map[string]any) {
	ids := make([]string, len(b.IDs))
	for i, id := range b.IDs {
		ids[i] = id.String()
	}
	props["ids"] = ids

	deleted := make([]map[string]any, len(b.Deleted))
	for i := range b.Deleted {
		deleted[i] = b.Deleted[i].fields()
	}
	props["deleted"] = deleted
}

// Fields is a free-form property set for actions without a dedicated shape
type Fields map[string]any

func (f Fields) apply(props map[string]any) {
	for k, v := range f {
		if k == keyIPAddress || k == keyUserAgent {
			continue
		}
		props[k] = v
	}
}

// UserSnapshot is the audited view of a user row
type UserSnapshot struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Phone    string
	Status   models.UserStatus
	ImageURL string
}

// SnapshotOf copies the audited fields of u
func SnapshotOf(u *models.User) *UserSnapshot {
	if u == nil {
		return nil
	}
	return &UserSnapshot{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Status:   u.Status,
		ImageURL: u.ImageURL,
	}
}

func (s UserSnapshot) fields() map[string]any {
	return map[string]any{
		"id":        s.ID.String(),
		"name":      s.Name,
		"email":     s.Email,
		"phone":     s.Phone,
		"status":    string(s.Status),
		"image_url": s.ImageURL,
	}
}

const (
	keyIPAddress = "ip_address"
	keyUserAgent = "user_agent"
)

// buildProperties merges the request context with the operation context.
// ip_address and user_agent always come from req.
func buildProperties(req Request, ctx Context) map[string]any {
	props := map[string]any{}
	if ctx != nil {
		ctx.apply(props)
	}
	props[keyIPAddress] = req.IPAddress
	props[keyUserAgent] = req.UserAgent
	return props
}
