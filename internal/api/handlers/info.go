package handlers

import (
	"net/http"

	"github.com/floatbank/floatbank/internal/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InfoHandler handles health requests
type InfoHandler struct {
	db *gorm.DB
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(database *gorm.DB) *InfoHandler {
	return &InfoHandler{db: database}
}

// HealthResponse represents the health check result
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health godoc
// @Summary Health check
// @Description Reports whether the server and its database are reachable
// @Tags system
// @Produce json
// @Success 200 {object} response.Envelope{result=HealthResponse}
// @Failure 503 {object} response.Envelope
// @Router /health [get]
func (h *InfoHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, "Database unreachable", response.ErrorTypeServer, err.Error())
		return
	}

	response.OK(c, HealthResponse{Status: "ok", Database: "ok"}, "Service is healthy")
}
