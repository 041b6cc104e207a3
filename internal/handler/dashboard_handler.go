package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/service"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/response"
)

type dashboardService interface {
	Report(ctx context.Context, termID string) (*models.DashboardReport, error)
}

// DashboardHandler exposes aggregated reporting endpoints.
type DashboardHandler struct {
	service dashboardService
	metrics *service.MetricsService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc dashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics}
}

// Report godoc
// @Summary Term dashboard report
// @Description Teacher workload, classroom occupation and unassigned teachers
// @Description for one term. Served cache-first.
// @Tags Dashboard
// @Produce json
// @Param term_id query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	termID := strings.TrimSpace(c.Query("term_id"))
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}

	start := time.Now()
	report, err := h.service.Report(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	response.JSON(c, http.StatusOK, report, nil, meta)
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
