package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

const (
	objAdmin = "admin"
	actAdmin = "admin"
)

// Enforcer answers role questions for user management. It is shared by all
// request goroutines, so the underlying casbin enforcer is the synced one.
type Enforcer struct {
	e *casbin.SyncedEnforcer
}

// NewEnforcer initializes a Casbin enforcer whose policies live in db
func NewEnforcer(db *gorm.DB, logger *slog.Logger) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	// Load model from embedded string
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	// Load policies from database
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	logger.Info("RBAC enforcer initialized")
	return &Enforcer{e: e}, nil
}

// IsAdmin checks if user has admin privileges
func (en *Enforcer) IsAdmin(userID uuid.UUID) (bool, error) {
	return en.e.Enforce(userID.String(), objAdmin, actAdmin)
}

// MakeAdmin grants admin privileges to a user
func (en *Enforcer) MakeAdmin(userID uuid.UUID) error {
	_, err := en.e.AddPolicy(userID.String(), objAdmin, actAdmin)
	return err
}

// RevokeAdmin removes admin privileges from a user
func (en *Enforcer) RevokeAdmin(userID uuid.UUID) error {
	_, err := en.e.RemovePolicy(userID.String(), objAdmin, actAdmin)
	return err
}

// Forget drops every policy held by the given users
func (en *Enforcer) Forget(userIDs ...uuid.UUID) error {
	for _, id := range userIDs {
		if _, err := en.e.RemoveFilteredPolicy(0, id.String()); err != nil {
			return fmt.Errorf("failed to remove policies for %s: %w", id, err)
		}
	}
	return nil
}

// AdminUserIDs returns a set of all user IDs that have admin privileges
func (en *Enforcer) AdminUserIDs() (map[uuid.UUID]bool, error) {
	// Get all policies where object="admin" and action="admin" in ONE call
	policies, err := en.e.GetFilteredPolicy(1, objAdmin, actAdmin)
	if err != nil {
		return nil, err
	}

	adminUserIDs := make(map[uuid.UUID]bool, len(policies))
	for _, policy := range policies {
		if len(policy) >= 1 {
			if userID, err := uuid.Parse(policy[0]); err == nil {
				adminUserIDs[userID] = true
			}
		}
	}

	return adminUserIDs, nil
}
