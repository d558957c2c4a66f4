package handlers

import (
	"net/http"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the owner dashboard
type DashboardHandler struct {
	audit *audit.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(auditSvc *audit.Service) *DashboardHandler {
	return &DashboardHandler{audit: auditSvc}
}

// Metrics returns the aggregated agent metrics
func (h *DashboardHandler) Metrics(c echo.Context) error {
	metrics, err := h.audit.DashboardMetrics(c.Request().Context(), middleware.StudioID(c))
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, metrics)
}

// Events returns the most recent agent events
func (h *DashboardHandler) Events(c echo.Context) error {
	limit := queryInt(c, "limit", 20, 100)

	events, err := h.audit.Recent(c.Request().Context(), middleware.StudioID(c), limit)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
