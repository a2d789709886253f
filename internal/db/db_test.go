package db

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := New(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func setupEnforcer(t *testing.T, database *gorm.DB) *rbac.Enforcer {
	t.Helper()
	en, err := rbac.NewEnforcer(database, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return en
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_CreatesTables(t *testing.T) {
	database := setupTestDB(t)

	for _, model := range []any{&models.User{}, &models.ActivityLog{}, &models.RevokedToken{}} {
		assert.True(t, database.Migrator().HasTable(model))
	}
	// migrating twice is a no-op
	assert.NoError(t, Migrate(database))
}

func TestGormLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"debug":  logger.Info,
		"error":  logger.Error,
		"info":   logger.Warn,
		"":       logger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, GormLogLevel(in), in)
	}
}

func TestCreateDefaultAdmin(t *testing.T) {
	database := setupTestDB(t)
	en := setupEnforcer(t, database)

	seed := AdminSeed{Name: "Root", Email: "root@example.com", Phone: "0800", Password: "secret123"}
	require.NoError(t, CreateDefaultAdmin(database, en, seed))

	var user models.User
	require.NoError(t, database.Where("email = ?", "root@example.com").First(&user).Error)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "secret123"))

	isAdmin, err := en.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// users already exist, so a second seed is ignored
	require.NoError(t, CreateDefaultAdmin(database, en, AdminSeed{Email: "other@example.com", Password: "secret123"}))
	var count int64
	database.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateDefaultAdmin_SkipsWithoutCredentials(t *testing.T) {
	database := setupTestDB(t)
	en := setupEnforcer(t, database)

	require.NoError(t, CreateDefaultAdmin(database, en, AdminSeed{Email: "root@example.com"}))

	var count int64
	database.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}
