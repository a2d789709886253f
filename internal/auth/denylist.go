package auth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/floatbank/floatbank/internal/models"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Denylist remembers invalidated token IDs until they could no longer be used
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// DBDenylist stores revoked token IDs in the revoked_tokens table
type DBDenylist struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBDenylist creates a database-backed denylist
func NewDBDenylist(db *gorm.DB) *DBDenylist {
	return &DBDenylist{db: db, now: time.Now}
}

// Revoke records jti and purges entries that have outlived their tokens
func (d *DBDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	tx := d.db.WithContext(ctx)
	entry := models.RevokedToken{JTI: jti, ExpiresAt: until.UTC()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}

	if err := tx.Where("expires_at < ?", d.now().UTC()).Delete(&models.RevokedToken{}).Error; err != nil {
		slog.Warn("Failed to purge expired revoked tokens", "error", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked and is still tracked
func (d *DBDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at >= ?", jti, d.now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query revoked tokens: %w", err)
	}
	return count > 0, nil
}

// ValkeyDenylist stores revoked token IDs as expiring Valkey keys
type ValkeyDenylist struct {
	client valkey.Client
	prefix string
}

// NewValkeyDenylist connects to addr and verifies the connection
func NewValkeyDenylist(addr string) (*ValkeyDenylist, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	slog.Info("Initialized Valkey token denylist", "address", addr)
	return &ValkeyDenylist{client: client, prefix: "floatbank:revoked:"}, nil
}

// Revoke sets a key for jti that expires at until
func (v *ValkeyDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	seconds := int64(math.Ceil(time.Until(until).Seconds()))
	if seconds <= 0 {
		return nil
	}
	cmd := v.client.B().Set().Key(v.prefix + jti).Value("1").ExSeconds(seconds).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the key for jti exists
func (v *ValkeyDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := v.client.Do(ctx, v.client.B().Exists().Key(v.prefix+jti).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to query revoked tokens: %w", err)
	}
	return n > 0, nil
}

// Close releases the Valkey connection
func (v *ValkeyDenylist) Close() {
	v.client.Close()
}
