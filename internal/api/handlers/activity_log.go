package handlers

import (
	"net/http"
	"time"

	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ActivityLogHandler serves the read-only audit trail viewer
type ActivityLogHandler struct {
	recorder *audit.Recorder
}

// NewActivityLogHandler creates a new ActivityLogHandler
func NewActivityLogHandler(recorder *audit.Recorder) *ActivityLogHandler {
	return &ActivityLogHandler{recorder: recorder}
}

// RangeQuery holds the inclusive day range of a range lookup
type RangeQuery struct {
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
}

// ListActivityLogs godoc
// @Summary List the activity log (admin only)
// @Tags activity-logs
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{result=[]audit.Activity}
// @Router /activity-logs [get]
func (h *ActivityLogHandler) ListActivityLogs(c *gin.Context) {
	logs, err := h.recorder.All(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to fetch activity logs", err)
		return
	}
	response.OK(c, logs, "Activity logs retrieved successfully")
}

// ListByCategory godoc
// @Summary List the activity log of one category (admin only)
// @Tags activity-logs
// @Security BearerAuth
// @Produce json
// @Param log_name path string true "Category, e.g. Auth or User"
// @Success 200 {object} response.Envelope{result=[]audit.Activity}
// @Router /activity-logs/category/{log_name} [get]
func (h *ActivityLogHandler) ListByCategory(c *gin.Context) {
	logs, err := h.recorder.ByLogName(c.Request.Context(), c.Param("log_name"))
	if err != nil {
		writeError(c, "Failed to fetch activity logs", err)
		return
	}
	response.OK(c, logs, "Activity logs retrieved successfully")
}

// ListByDateRange godoc
// @Summary List the activity log between two days (admin only)
// @Description Both days are inclusive and interpreted in UTC
// @Tags activity-logs
// @Security BearerAuth
// @Produce json
// @Param start_date query string true "First day (YYYY-MM-DD)"
// @Param end_date query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{result=[]audit.Activity}
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /activity-logs/range [get]
func (h *ActivityLogHandler) ListByDateRange(c *gin.Context) {
	var q RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	var invalid []response.FieldError
	start, err := time.Parse(dateLayout, q.StartDate)
	if err != nil {
		invalid = append(invalid, response.FieldError{Field: "start_date", Message: "The start date does not match the format YYYY-MM-DD."})
	}
	end, err := time.Parse(dateLayout, q.EndDate)
	if err != nil {
		invalid = append(invalid, response.FieldError{Field: "end_date", Message: "The end date does not match the format YYYY-MM-DD."})
	}
	if len(invalid) > 0 {
		response.Invalid(c, "The given data was invalid", invalid...)
		return
	}

	if start.After(end) {
		response.Fail(c, http.StatusBadRequest, "Invalid date range", response.ErrorTypeBadRequest,
			"The start date must be before or equal to the end date.")
		return
	}

	// the range ends at the midnight after the last day
	logs, err := h.recorder.Between(c.Request.Context(), start, end.AddDate(0, 0, 1))
	if err != nil {
		writeError(c, "Failed to fetch activity logs", err)
		return
	}
	response.OK(c, logs, "Activity logs retrieved successfully")
}
