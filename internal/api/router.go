package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/floatbank/floatbank/internal/api/handlers"
	"github.com/floatbank/floatbank/internal/api/middleware"
	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/auth"
	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/metrics"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the handlers are built from
type Dependencies struct {
	DB            *gorm.DB
	Authenticator *auth.Authenticator
	Enforcer      *rbac.Enforcer
	Users         *service.UserService
	Recorder      *audit.Recorder
	// StorageDir is served read-only under cfg.Storage.URLPrefix when set.
	StorageDir string
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.Mode = cfg.Server.Mode

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	infoHandler := handlers.NewInfoHandler(deps.DB)
	authHandler := handlers.NewAuthHandler(deps.Authenticator, deps.Users, deps.Recorder)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Recorder)
	logHandler := handlers.NewActivityLogHandler(deps.Recorder)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", infoHandler.Health)
		public.GET("/version", handlers.GetVersion)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/refresh", authHandler.Refresh)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(deps.Authenticator.Middleware())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		// Admin endpoints
		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin(deps.Enforcer))
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.POST("/users", userHandler.CreateUser)
			admin.POST("/users/bulk-delete", userHandler.BulkDeleteUsers)
			admin.GET("/users/:id", userHandler.GetUser)
			admin.PUT("/users/:id", userHandler.UpdateUser)
			admin.PATCH("/users/:id/status", userHandler.UpdateUserStatus)
			admin.DELETE("/users/:id", userHandler.DeleteUser)

			admin.GET("/activity-logs", logHandler.ListActivityLogs)
			admin.GET("/activity-logs/category/:log_name", logHandler.ListByCategory)
			admin.GET("/activity-logs/range", logHandler.ListByDateRange)
		}
	}

	// Uploaded images
	if deps.StorageDir != "" {
		router.Static(cfg.Storage.URLPrefix, deps.StorageDir)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(handlers.NotFound)

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			slog.Warn("HTTP request", attrs...)
			return
		}
		slog.Info("HTTP request", attrs...)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
