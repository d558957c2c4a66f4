package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/phone"
	"github.com/labstack/echo/v4"
)

// BookingHandler records appointments and waitlist entries.
type BookingHandler struct {
	lifecycle *lifecycle.Store
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(lc *lifecycle.Store) *BookingHandler {
	return &BookingHandler{lifecycle: lc}
}

// ClientRef names an existing client or the details of a new one.
type ClientRef struct {
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name" validate:"required_without=ClientID,max=120"`
	ClientPhone string `json:"client_phone" validate:"max=32"`
	ClientIG    string `json:"client_ig" validate:"max=60"`
}

// CreateBookingRequest books an appointment.
type CreateBookingRequest struct {
	ClientRef
	Service     string    `json:"service" validate:"required,max=120"`
	Price       float64   `json:"price" validate:"gte=0"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Source      string    `json:"source" validate:"omitempty,oneof=instagram web referral waitlist"`
}

// WaitlistRequest queues a client for the next open slot of a service.
type WaitlistRequest struct {
	ClientRef
	Service     string `json:"service" validate:"required,max=120"`
	PreferredAt string `json:"preferred_at" validate:"max=120"`
}

// CreateBooking stores a confirmed booking, creating the client if needed.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if req.ScheduledAt.IsZero() {
		return errors.FromDomain(c, domain.NewValidationError("scheduled_at is required"))
	}

	ctx := c.Request().Context()
	studioID := middleware.StudioID(c)
	clientID, err := h.resolveClient(ctx, req.ClientRef, studioID)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	bookingID, err := h.lifecycle.CreateBooking(ctx, lifecycle.NewBooking{
		ClientID:    clientID,
		Service:     req.Service,
		Price:       req.Price,
		ScheduledAt: req.ScheduledAt,
		Source:      models.BookingSource(req.Source),
		StudioID:    studioID,
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}

	booking, err := h.lifecycle.GetBooking(ctx, bookingID)
	if err != nil {
		return errors.InternalError(c, err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// AddToWaitlist queues a client for a service.
func (h *BookingHandler) AddToWaitlist(c echo.Context) error {
	var req WaitlistRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	studioID := middleware.StudioID(c)
	clientID, err := h.resolveClient(ctx, req.ClientRef, studioID)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	entryID, err := h.lifecycle.AddToWaitlist(ctx, lifecycle.NewWaitlistEntry{
		ClientID:    clientID,
		Service:     req.Service,
		PreferredAt: req.PreferredAt,
		StudioID:    studioID,
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"waitlist_id": entryID,
		"client_id":   clientID,
	})
}

// resolveClient returns ref's client when it belongs to the studio, or
// creates one from the supplied details.
func (h *BookingHandler) resolveClient(ctx context.Context, ref ClientRef, studioID string) (string, error) {
	if ref.ClientID != "" {
		client, err := h.lifecycle.GetClient(ctx, ref.ClientID)
		if err != nil {
			return "", err
		}
		if client == nil || domain.HiddenFrom(client.StudioID, studioID) {
			return "", domain.NewNotFoundError("client")
		}
		return client.ID, nil
	}

	number := ""
	if ref.ClientPhone != "" {
		normalized, err := phone.Normalize(ref.ClientPhone, phone.DefaultRegion)
		if err != nil {
			return "", domain.NewValidationError("client_phone is not a valid phone number")
		}
		number = normalized
	}

	return h.lifecycle.CreateClient(ctx, lifecycle.NewClient{
		Name:            ref.ClientName,
		Phone:           number,
		InstagramHandle: ref.ClientIG,
		StudioID:        studioID,
	})
}
