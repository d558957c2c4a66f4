package handlers

import (
	"net/http"
	"time"

	"github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/gapfill"
	"github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/revenue"
	"github.com/jordanlanch/beautyos/pkg/vibecheck"
	"github.com/labstack/echo/v4"
)

// RunRecorder counts agent invocations by outcome.
type RunRecorder interface {
	RecordAgentRun(agent string, err error)
}

// AgentHandler exposes the vibe check, revenue and gap filler agents.
type AgentHandler struct {
	vibe     *vibecheck.Agent
	revenue  *revenue.Engine
	gapFill  *gapfill.Agent
	recorder RunRecorder
}

// NewAgentHandler creates a new agent handler. recorder may be nil.
func NewAgentHandler(vibe *vibecheck.Agent, rev *revenue.Engine, gapFill *gapfill.Agent, recorder RunRecorder) *AgentHandler {
	return &AgentHandler{vibe: vibe, revenue: rev, gapFill: gapFill, recorder: recorder}
}

// VibeCheckRequest is a first message from a prospective client.
type VibeCheckRequest struct {
	Message     string `json:"message" validate:"required,max=4000"`
	SenderName  string `json:"sender_name" validate:"max=120"`
	SenderIG    string `json:"sender_ig" validate:"max=60"`
	SenderPhone string `json:"sender_phone" validate:"max=32"`
	DryRun      bool   `json:"dry_run"`
}

// PolicyConfirmationRequest is a reply to the policy question.
type PolicyConfirmationRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Message  string `json:"message" validate:"required,max=4000"`
}

// UpsellReplyRequest is an inbound SMS reply to an upsell offer.
type UpsellReplyRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
	ReplyText string `json:"reply_text" validate:"required,max=1600"`
	MessageID string `json:"message_id"`
}

// CancellationRequest reports a cancelled booking. Empty fields are filled
// from the stored booking.
type CancellationRequest struct {
	BookingID     string    `json:"booking_id" validate:"required"`
	Service       string    `json:"service"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	OriginalPrice float64   `json:"original_price" validate:"gte=0"`
}

// GapFillReplyRequest is a waitlisted client's answer to a slot offer.
type GapFillReplyRequest struct {
	ClientID    string    `json:"client_id" validate:"required"`
	Service     string    `json:"service" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Price       float64   `json:"price" validate:"gte=0"`
	ReplyText   string    `json:"reply_text" validate:"required,max=1600"`
}

// VibeCheck screens a new lead.
func (h *AgentHandler) VibeCheck(c echo.Context) error {
	var req VibeCheckRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if req.SenderName == "" {
		req.SenderName = "Unknown"
	}

	result, err := h.vibe.EvaluateLead(c.Request().Context(), vibecheck.LeadInput{
		StudioID:    middleware.StudioID(c),
		Message:     req.Message,
		SenderName:  req.SenderName,
		SenderIG:    req.SenderIG,
		SenderPhone: req.SenderPhone,
		DryRun:      req.DryRun,
	})
	h.record(models.AgentVibeCheck, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ConfirmPolicy evaluates a client's policy confirmation reply.
func (h *AgentHandler) ConfirmPolicy(c echo.Context) error {
	var req PolicyConfirmationRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.vibe.EvaluatePolicyConfirmation(c.Request().Context(), vibecheck.ConfirmInput{
		ClientID: req.ClientID,
		Message:  req.Message,
		StudioID: middleware.StudioID(c),
	})
	h.record(models.AgentVibeCheck, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ProcessUpsell sends offers for every booking in the upsell window.
func (h *AgentHandler) ProcessUpsell(c echo.Context) error {
	results, err := h.revenue.ProcessUpsellWindow(c.Request().Context(), middleware.StudioID(c))
	h.record(models.AgentRevenue, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	if results == nil {
		results = []revenue.UpsellResult{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"upsells_sent": len(results),
		"details":      results,
	})
}

// UpsellReply handles an inbound reply to an upsell SMS.
func (h *AgentHandler) UpsellReply(c echo.Context) error {
	var req UpsellReplyRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.revenue.HandleUpsellReply(c.Request().Context(), revenue.ReplyInput{
		BookingID: req.BookingID,
		ReplyText: req.ReplyText,
		StudioID:  middleware.StudioID(c),
		MessageID: req.MessageID,
	})
	h.record(models.AgentRevenue, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GapFillCancel processes a cancellation and offers the slot to the waitlist.
func (h *AgentHandler) GapFillCancel(c echo.Context) error {
	var req CancellationRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}

	result, err := h.gapFill.HandleCancellation(c.Request().Context(), gapfill.CancellationInput{
		BookingID:     req.BookingID,
		Service:       req.Service,
		ScheduledAt:   req.ScheduledAt,
		OriginalPrice: req.OriginalPrice,
		StudioID:      middleware.StudioID(c),
	})
	h.record(models.AgentGapFiller, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GapFillReply books the slot when the waitlisted client says yes.
func (h *AgentHandler) GapFillReply(c echo.Context) error {
	var req GapFillReplyRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if req.ScheduledAt.IsZero() {
		return errors.FromDomain(c, domain.NewValidationError("scheduled_at is required"))
	}

	result, err := h.gapFill.HandleGapFillReply(c.Request().Context(), gapfill.GapFillReplyInput{
		ClientID:    req.ClientID,
		Service:     req.Service,
		ScheduledAt: req.ScheduledAt,
		Price:       req.Price,
		ReplyText:   req.ReplyText,
		StudioID:    middleware.StudioID(c),
	})
	h.record(models.AgentGapFiller, err)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AgentHandler) record(agent string, err error) {
	if h.recorder != nil {
		h.recorder.RecordAgentRun(agent, err)
	}
}
