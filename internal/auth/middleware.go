package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/gin-gonic/gin"
)

const (
	// UserContextKey is the key used to store user in Gin context
	UserContextKey = "user"
	// TokenContextKey is the key used to store the raw bearer token in Gin context
	TokenContextKey = "token"
)

// BearerToken extracts the token from the Authorization header. ok is false
// for a malformed header; a missing header yields an empty token.
func BearerToken(c *gin.Context) (token string, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", true
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Middleware returns a Gin middleware that admits requests carrying a
// valid token of an active user
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			AbortUnauthorized(c, ErrTokenInvalid)
			return
		}

		user, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if !IsAuthFailure(err) {
				slog.Error("Token verification failed", "error", err)
				response.AbortJSON(c, response.Build(nil, "Authentication failed",
					response.WithCode(http.StatusInternalServerError),
					response.WithErrors(response.ErrorTypeServer, err.Error())))
				return
			}
			slog.Warn("Rejected bearer token", "error", err, "ip", c.ClientIP())
			AbortUnauthorized(c, err)
			return
		}

		c.Set(UserContextKey, user)
		c.Set(TokenContextKey, raw)
		c.Next()
	}
}

// AbortUnauthorized writes a 401 envelope describing err
func AbortUnauthorized(c *gin.Context, err error) {
	msg := UnauthorizedMessage(err)
	response.AbortJSON(c, response.Build(nil, msg,
		response.WithCode(http.StatusUnauthorized),
		response.WithErrors(response.ErrorTypeAuth, msg)))
}

// UnauthorizedMessage maps an authentication failure to its client message
func UnauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "Token not provided"
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrAccountInactive):
		return "Account is inactive"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	default:
		return "Token is invalid"
	}
}

// IsAuthFailure reports whether err means the caller must re-authenticate
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrTokenMissing) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrAccountInactive)
}

// CurrentUser returns the identity resolved by Middleware
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// CurrentToken returns the raw token admitted by Middleware
func CurrentToken(c *gin.Context) string {
	return c.GetString(TokenContextKey)
}
