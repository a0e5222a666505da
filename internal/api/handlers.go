// handlers.go implements the report endpoints consumed by the dashboard
// front end. Upstream degradation (provider errors, cache misses on a dead
// provider) still yields 200 with empty data — the dashboard renders a
// partial view rather than an error page. The single exception is a missing
// credential tuple, which is a deployment fault and surfaces as 500.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tsumanga/analytics-dashboard/internal/distimo"
	"github.com/tsumanga/analytics-dashboard/internal/reports"
)

// ReportHandler serves the Distimo-based dashboard reports.
type ReportHandler struct {
	service *reports.Service
}

// NewReportHandler creates a report handler on top of the report service.
func NewReportHandler(service *reports.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetAppIDs handles GET /app/dash/appids.
// Returns an object with app display names as keys and lists of provider
// asset IDs as values, so other reports can be meaningfully labelled.
func (h *ReportHandler) GetAppIDs(c *gin.Context) {
	apps, err := h.service.AppIDs(c.Request.Context())
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// GetDownloads handles GET /app/dash/downloads?days=N.
// Returns the tabular downloads report: {"array": [[header...], [row...]]}.
func (h *ReportHandler) GetDownloads(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 3650 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 3650"})
			return
		}
		days = parsed
	}

	report, err := h.service.Downloads(c.Request.Context(), days)
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// reportError maps pipeline errors to HTTP responses. Only ErrNotConfigured
// ever reaches this point by design.
func (h *ReportHandler) reportError(c *gin.Context, err error) {
	if errors.Is(err, distimo.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "distimo not configured"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "report computation failed"})
}
