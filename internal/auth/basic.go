package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/floatbank/floatbank/internal/models"
	"gorm.io/gorm"
)

// Authenticator implements email/password authentication over the user table
type Authenticator struct {
	db     *gorm.DB
	tokens *TokenService
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(db *gorm.DB, tokens *TokenService) *Authenticator {
	return &Authenticator{db: db, tokens: tokens}
}

// Tokens returns the token service backing the authenticator
func (a *Authenticator) Tokens() *TokenService {
	return a.tokens
}

// Login authenticates a user and returns a bearer token
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	result := a.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Warn("Login attempt with unregistered email", "email", email)
			return nil, ErrEmailNotRegistered
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	// Verify password
	if !VerifyPassword(user.PasswordHash, password) {
		slog.Warn("Login attempt with incorrect password", "email", email)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		slog.Warn("Login attempt on inactive account", "user_id", user.ID)
		return nil, ErrAccountInactive
	}

	token, err := a.tokens.Issue(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return &LoginResponse{Token: token, User: &user}, nil
}

// Authenticate verifies raw and loads the active user it belongs to
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	claims, err := a.tokens.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return a.loadActiveUser(ctx, claims)
}

// Refresh exchanges raw for a new token for an active user
func (a *Authenticator) Refresh(ctx context.Context, raw string) (*LoginResponse, error) {
	claims, err := a.tokens.parseForRefresh(raw)
	if err != nil {
		return nil, err
	}
	user, err := a.loadActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	token, _, err := a.tokens.Refresh(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: user}, nil
}

func (a *Authenticator) loadActiveUser(ctx context.Context, claims *Claims) (*models.User, error) {
	userID, err := claims.Subject()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := a.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s no longer exists", ErrTokenInvalid, userID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	return &user, nil
}
