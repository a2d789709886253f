// Package middleware holds route guards shared by the API groups.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireAdmin admits only users holding the admin role. It must run after
// the authentication middleware.
func RequireAdmin(enforcer *rbac.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			auth.AbortUnauthorized(c, auth.ErrTokenMissing)
			return
		}

		allowed, err := enforcer.IsAdmin(user.ID)
		if err != nil {
			slog.Error("Failed to check admin permission", "user_id", user.ID, "error", err)
			response.AbortJSON(c, response.Build(nil, "Failed to check permissions",
				response.WithCode(http.StatusInternalServerError),
				response.WithErrors(response.ErrorTypeServer, err.Error())))
			return
		}

		if !allowed {
			slog.Warn("Admin access denied", "user_id", user.ID, "path", c.FullPath())
			response.AbortJSON(c, response.Build(nil, "Admin access required",
				response.WithCode(http.StatusForbidden),
				response.WithErrors(response.ErrorTypeForbidden, "You are not allowed to perform this action.")))
			return
		}

		c.Next()
	}
}
