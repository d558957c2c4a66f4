package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/export"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/slack"
	"github.com/jordanlanch/beautyos/pkg/socialhunter"
	"github.com/jordanlanch/beautyos/pkg/socialleads"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/labstack/echo/v4"
)

const (
	defaultLeadsLimit = 50
	maxLeadsLimit     = 200
	maxExportRows     = 5000
)

// SocialHandler exposes the social hunter and its lead review queue.
type SocialHandler struct {
	hunter   *socialhunter.Hunter
	leads    *socialleads.Store
	tenants  *tenant.Store
	notifier *slack.Service
	recorder RunRecorder
	logger   logger.Logger
}

// NewSocialHandler creates a new social handler. recorder may be nil.
func NewSocialHandler(hunter *socialhunter.Hunter, leads *socialleads.Store, tenants *tenant.Store, notifier *slack.Service, recorder RunRecorder, log logger.Logger) *SocialHandler {
	return &SocialHandler{
		hunter:   hunter,
		leads:    leads,
		tenants:  tenants,
		notifier: notifier,
		recorder: recorder,
		logger:   log.With("component", "social_handler"),
	}
}

// HuntRequest overrides the studio's Reddit scan settings. Every field is
// optional.
type HuntRequest struct {
	DryRun         bool     `json:"dry_run"`
	Subreddits     []string `json:"subreddits" validate:"omitempty,max=20,dive,min=1,max=50"`
	Keywords       []string `json:"keywords" validate:"omitempty,max=30,dive,min=1,max=80"`
	LimitPerSearch int      `json:"limit_per_search" validate:"omitempty,min=1,max=100"`
}

// MapsHuntRequest overrides the Google Maps scan settings.
type MapsHuntRequest struct {
	MaxRating     int      `json:"max_rating" validate:"omitempty,min=1,max=5"`
	BusinessTypes []string `json:"business_types" validate:"omitempty,max=10,dive,min=1,max=60"`
}

// Hunt scans Reddit for potential clients.
func (h *SocialHandler) Hunt(c echo.Context) error {
	var req HuntRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.hunter.RunSocialHunter(c.Request().Context(), socialhunter.HuntInput{
		StudioID:       middleware.StudioID(c),
		DryRun:         req.DryRun,
		Subreddits:     req.Subreddits,
		Keywords:       req.Keywords,
		LimitPerSearch: req.LimitPerSearch,
	})
	h.record(err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// HuntMaps scans negative Google reviews of nearby competitors.
func (h *SocialHandler) HuntMaps(c echo.Context) error {
	var req MapsHuntRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.hunter.RunGoogleMapsHunter(c.Request().Context(), socialhunter.MapsHuntInput{
		StudioID:      middleware.StudioID(c),
		MaxRating:     req.MaxRating,
		BusinessTypes: req.BusinessTypes,
	})
	h.record(err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListLeads returns the studio's leads, newest first, optionally filtered
// by ?status=.
func (h *SocialHandler) ListLeads(c echo.Context) error {
	status, ok := statusFilter(c)
	if !ok {
		return invalidStatus(c)
	}
	limit := queryInt(c, "limit", defaultLeadsLimit, maxLeadsLimit)

	leads, err := h.leads.ListLeads(c.Request().Context(), middleware.StudioID(c), status, limit)
	if err != nil {
		return errors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"leads": leads,
		"count": len(leads),
	})
}

// Approve approves a new lead and posts its drafted reply when the
// platform allows it.
func (h *SocialHandler) Approve(c echo.Context) error {
	result, err := h.hunter.ApproveAndReply(c.Request().Context(), c.Param("id"), middleware.StudioID(c))
	h.record(err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Dismiss removes a lead from the review queue.
func (h *SocialHandler) Dismiss(c echo.Context) error {
	if err := h.hunter.DismissLead(c.Request().Context(), c.Param("id"), middleware.StudioID(c)); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Lead dismissed"})
}

// Export downloads the studio's leads as xlsx (default) or csv.
func (h *SocialHandler) Export(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = export.FormatXLSX
	}
	if !export.Valid(format) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: "format must be xlsx or csv",
		})
	}
	status, ok := statusFilter(c)
	if !ok {
		return invalidStatus(c)
	}

	ctx := c.Request().Context()
	studio, err := h.tenants.GetStudio(ctx, middleware.StudioID(c))
	if err != nil {
		return errors.InternalError(c, err)
	}
	if studio == nil {
		return errors.NotFoundError(c, "Studio")
	}

	leads, err := h.leads.ListLeads(ctx, studio.ID, status, maxExportRows)
	if err != nil {
		return errors.InternalError(c, err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, leads); err != nil {
		return errors.InternalError(c, err)
	}

	if err := h.notifier.NotifyExportComplete(ctx, studio.Name, format, len(leads)); err != nil {
		h.logger.Warn("failed to notify export", "studio_id", studio.ID, "error", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+export.Filename(studio.Slug, format, time.Now())+`"`)
	return c.Blob(http.StatusOK, export.ContentType(format), buf.Bytes())
}

func (h *SocialHandler) record(err error) {
	if h.recorder != nil {
		h.recorder.RecordAgentRun(models.AgentSocialHunter, err)
	}
}

func statusFilter(c echo.Context) (models.SocialLeadStatus, bool) {
	status := models.SocialLeadStatus(c.QueryParam("status"))
	if status == "" {
		return "", true
	}
	return status, socialleads.ValidStatus(status)
}

func invalidStatus(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_status",
		Message: "status must be one of new, approved, replied, dismissed, failed",
	})
}
