package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/rbac"
	"gorm.io/gorm"
)

// AdminSeed holds the details of a bootstrap administrator
type AdminSeed struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AdminSeedFromEnv reads ADMIN_NAME, ADMIN_EMAIL, ADMIN_PHONE and ADMIN_PASSWORD
func AdminSeedFromEnv() AdminSeed {
	return AdminSeed{
		Name:     os.Getenv("ADMIN_NAME"),
		Email:    os.Getenv("ADMIN_EMAIL"),
		Phone:    os.Getenv("ADMIN_PHONE"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
}

// CreateDefaultAdmin creates an admin from seed when the credentials are set
// and no users exist in the database
func CreateDefaultAdmin(db *gorm.DB, enforcer *rbac.Enforcer, seed AdminSeed) error {
	// If no admin credentials provided, skip
	if seed.Email == "" || seed.Password == "" {
		slog.Info("No ADMIN_EMAIL or ADMIN_PASSWORD set, skipping default admin creation")
		return nil
	}

	// Check if any users exist
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	// If users already exist, skip
	if count > 0 {
		slog.Info("Users already exist, skipping default admin creation")
		return nil
	}

	_, err := CreateAdmin(db, enforcer, seed)
	return err
}

// CreateAdmin creates a user from seed and grants it the admin role
func CreateAdmin(db *gorm.DB, enforcer *rbac.Enforcer, seed AdminSeed) (*models.User, error) {
	seed.Email = strings.ToLower(strings.TrimSpace(seed.Email))
	if seed.Name == "" {
		seed.Name = "Administrator"
	}
	if seed.Phone == "" {
		seed.Phone = "admin"
	}

	hashed, err := auth.HashPassword(seed.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         seed.Name,
		Email:        seed.Email,
		Phone:        seed.Phone,
		PasswordHash: hashed,
		Status:       models.UserStatusActive,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := enforcer.MakeAdmin(user.ID); err != nil {
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}

	slog.Info("Admin user created", "user_id", user.ID, "email", user.Email)
	return &user, nil
}
