package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/slack"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/labstack/echo/v4"
)

// StudioHandler handles signup, studio settings and the service menu.
type StudioHandler struct {
	tenants  *tenant.Store
	notifier *slack.Service
	logger   logger.Logger
}

// NewStudioHandler creates a new studio handler
func NewStudioHandler(tenants *tenant.Store, notifier *slack.Service, log logger.Logger) *StudioHandler {
	return &StudioHandler{
		tenants:  tenants,
		notifier: notifier,
		logger:   log.With("component", "studio_handler"),
	}
}

// CreateServiceRequest adds a service to the menu.
type CreateServiceRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Price       float64 `json:"price" validate:"gte=0"`
	DurationMin int     `json:"duration_min" validate:"gte=0,lte=1440"`
}

// CreateAddonRequest attaches an upsell to a service.
type CreateAddonRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Price       float64 `json:"price" validate:"gte=0"`
	DurationMin int     `json:"duration_min" validate:"gte=0,lte=1440"`
	Pitch       string  `json:"pitch" validate:"max=280"`
}

// Signup registers a studio. The API key is only returned here.
func (h *StudioHandler) Signup(c echo.Context) error {
	var req tenant.CreateStudioInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	created, err := h.tenants.CreateStudio(ctx, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	if err := h.notifier.NotifyNewStudio(ctx, created.Name, req.Email); err != nil {
		h.logger.Warn("failed to notify new studio", "studio_id", created.ID, "error", err)
	}
	h.logger.Info("studio created", "studio_id", created.ID, "slug", created.Slug)

	return c.JSON(http.StatusCreated, created)
}

// GetStudio returns the authenticated studio's settings.
func (h *StudioHandler) GetStudio(c echo.Context) error {
	studio, err := h.tenants.GetStudio(c.Request().Context(), middleware.StudioID(c))
	if err != nil {
		return errors.InternalError(c, err)
	}
	if studio == nil {
		return errors.NotFoundError(c, "Studio")
	}
	return c.JSON(http.StatusOK, studio)
}

// UpdateStudio patches studio settings. Unknown keys are ignored.
func (h *StudioHandler) UpdateStudio(c echo.Context) error {
	fields, err := decodePatch(c)
	if err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	studioID := middleware.StudioID(c)
	if err := h.tenants.UpdateStudio(ctx, studioID, fields); err != nil {
		return errors.FromDomain(c, err)
	}
	return h.GetStudio(c)
}

// ListServices returns the active menu with each service's add-ons.
func (h *StudioHandler) ListServices(c echo.Context) error {
	ctx := c.Request().Context()
	services, err := h.tenants.ListServices(ctx, middleware.StudioID(c))
	if err != nil {
		return errors.InternalError(c, err)
	}

	for i := range services {
		addons, err := h.tenants.ListAddonsForService(ctx, services[i].ID)
		if err != nil {
			return errors.InternalError(c, err)
		}
		services[i].Addons = addons
	}
	if services == nil {
		services = []models.Service{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
	})
}

// CreateService adds a service to the menu.
func (h *StudioHandler) CreateService(c echo.Context) error {
	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	id, err := h.tenants.CreateService(ctx, middleware.StudioID(c), req.Name, req.Price, req.DurationMin)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	svc, err := h.tenants.GetService(ctx, id)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// UpdateService patches a service owned by the studio.
func (h *StudioHandler) UpdateService(c echo.Context) error {
	svc, err := h.ownedService(c)
	if err != nil || svc == nil {
		return err
	}
	fields, err := decodePatch(c)
	if err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	if err := h.tenants.UpdateService(ctx, svc.ID, fields); err != nil {
		return errors.FromDomain(c, err)
	}
	updated, err := h.tenants.GetService(ctx, svc.ID)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteService deactivates a service owned by the studio.
func (h *StudioHandler) DeleteService(c echo.Context) error {
	svc, err := h.ownedService(c)
	if err != nil || svc == nil {
		return err
	}
	if err := h.tenants.DeleteService(c.Request().Context(), svc.ID); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateAddon attaches an add-on to a service owned by the studio.
func (h *StudioHandler) CreateAddon(c echo.Context) error {
	svc, err := h.ownedService(c)
	if err != nil || svc == nil {
		return err
	}

	var req CreateAddonRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	id, err := h.tenants.CreateAddon(ctx, svc.ID, svc.StudioID, req.Name, req.Price, req.DurationMin, req.Pitch)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	addon, err := h.tenants.GetAddon(ctx, id)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusCreated, addon)
}

// UpdateAddon patches an add-on owned by the studio.
func (h *StudioHandler) UpdateAddon(c echo.Context) error {
	addon, err := h.ownedAddon(c)
	if err != nil || addon == nil {
		return err
	}
	fields, err := decodePatch(c)
	if err != nil {
		return invalidBody(c)
	}

	ctx := c.Request().Context()
	if err := h.tenants.UpdateAddon(ctx, addon.ID, fields); err != nil {
		return errors.FromDomain(c, err)
	}
	updated, err := h.tenants.GetAddon(ctx, addon.ID)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteAddon removes an add-on owned by the studio.
func (h *StudioHandler) DeleteAddon(c echo.Context) error {
	addon, err := h.ownedAddon(c)
	if err != nil || addon == nil {
		return err
	}
	if err := h.tenants.DeleteAddon(c.Request().Context(), addon.ID); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedService loads the :id service. When it returns a nil service the
// response has already been written and err is the result of writing it.
func (h *StudioHandler) ownedService(c echo.Context) (*models.Service, error) {
	svc, err := h.tenants.GetService(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, errors.InternalError(c, err)
	}
	if svc == nil || svc.StudioID != middleware.StudioID(c) {
		return nil, errors.NotFoundError(c, "Service")
	}
	return svc, nil
}

func (h *StudioHandler) ownedAddon(c echo.Context) (*models.Addon, error) {
	addon, err := h.tenants.GetAddon(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, errors.InternalError(c, err)
	}
	if addon == nil || addon.StudioID != middleware.StudioID(c) {
		return nil, errors.NotFoundError(c, "Addon")
	}
	return addon, nil
}

// decodePatch reads a JSON object body. The default binder is skipped so
// path params do not leak into the patch.
func decodePatch(c echo.Context) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}
