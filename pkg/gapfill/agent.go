// Package gapfill backfills cancelled appointments from the waitlist.
package gapfill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/idempotency"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/reply"
	"github.com/jordanlanch/beautyos/pkg/sms"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

// SlotLayout formats the opened slot in waitlist texts.
const SlotLayout = "Mon Jan 2 at 3:04 PM"

const noWaitlistReason = "No one on waitlist for this service."

// Agent runs the gap filler.
type Agent struct {
	tenants     *tenant.Store
	lifecycle   *lifecycle.Store
	audit       *audit.Service
	idempotency idempotency.Store
	sms         sms.Texter
	defaultName string
	logger      logger.Logger
}

// NewAgent creates a gap filler. defaultStudioName signs texts for bookings
// without a studio.
func NewAgent(tenants *tenant.Store, lc *lifecycle.Store, auditSvc *audit.Service, idem idempotency.Store, texter sms.Texter, defaultStudioName string, log logger.Logger) *Agent {
	return &Agent{
		tenants:     tenants,
		lifecycle:   lc,
		audit:       auditSvc,
		idempotency: idem,
		sms:         texter,
		defaultName: defaultStudioName,
		logger:      log.With("component", "gap_filler"),
	}
}

// CancellationInput describes a cancelled booking.
type CancellationInput struct {
	BookingID     string
	Service       string
	ScheduledAt   time.Time
	OriginalPrice float64
	StudioID      string
}

// CancellationResult reports whether someone was offered the slot.
type CancellationResult struct {
	CancellationProcessed bool   `json:"cancellation_processed"`
	WaitlistNotified      bool   `json:"waitlist_notified"`
	Reason                string `json:"reason,omitempty"`
	NotifiedClient        string `json:"notified_client,omitempty"`
	SMSBody               string `json:"sms_body,omitempty"`
	SMSSID                string `json:"sms_sid,omitempty"`
	DeliveryError         string `json:"delivery_error,omitempty"`
	Duplicate             bool   `json:"duplicate,omitempty"`
}

// GapFillReplyInput is a waitlisted client's answer to a slot offer.
type GapFillReplyInput struct {
	ClientID    string
	Service     string
	ScheduledAt time.Time
	Price       float64
	ReplyText   string
	StudioID    string
}

// GapFillReplyResult reports whether the slot was booked.
type GapFillReplyResult struct {
	Filled    bool   `json:"filled"`
	BookingID string `json:"booking_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// HandleCancellation cancels the booking and texts the first waitlisted
// client for the same service. Replays of the same cancellation notify nobody.
func (a *Agent) HandleCancellation(ctx context.Context, in CancellationInput) (*CancellationResult, error) {
	booking, err := a.lifecycle.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || domain.HiddenFrom(booking.StudioID, in.StudioID) {
		return nil, domain.NewNotFoundError("booking")
	}
	if in.Service == "" {
		in.Service = booking.Service
	}
	if in.ScheduledAt.IsZero() {
		in.ScheduledAt = booking.ScheduledAt
	}
	if in.StudioID == "" {
		in.StudioID = booking.StudioID
	}
	slot := in.ScheduledAt.UTC().Format(SlotLayout)

	if err := a.lifecycle.CancelBooking(ctx, in.BookingID); err != nil {
		return nil, err
	}
	if err := a.log(ctx, in.StudioID, "cancellation_detected", map[string]any{
		"booking_id": in.BookingID,
		"service":    in.Service,
		"time":       in.ScheduledAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	claimed, err := a.idempotency.Claim(ctx, idempotency.CancelKey(in.BookingID), idempotency.DefaultTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		a.logger.Info("cancellation already handled", "booking_id", in.BookingID)
		return &CancellationResult{CancellationProcessed: true, Duplicate: true}, nil
	}

	waitlist, err := a.lifecycle.FindWaitlistForService(ctx, in.Service, in.StudioID)
	if err != nil {
		return nil, err
	}
	if len(waitlist) == 0 {
		if err := a.log(ctx, in.StudioID, "no_waitlist", map[string]any{
			"booking_id": in.BookingID,
			"service":    in.Service,
		}); err != nil {
			return nil, err
		}
		return &CancellationResult{CancellationProcessed: true, Reason: noWaitlistReason}, nil
	}

	next := waitlist[0]
	studioName, err := a.studioName(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}
	body := fmt.Sprintf("Hey %s! A spot just opened up for %s on %s. Want it? Reply YES to grab it before it's gone! — %s",
		firstName(next.Client.Name), in.Service, slot, studioName)

	// The cancel key is already claimed, so the entry is marked notified
	// even when delivery fails.
	var deliveryErr string
	sid, err := a.sms.Send(ctx, next.Client.Phone, body)
	if err != nil {
		deliveryErr = err.Error()
		a.logger.Warn("waitlist offer not delivered", "waitlist_entry_id", next.ID, "error", err)
	}

	if err := a.lifecycle.MarkWaitlistNotified(ctx, next.ID); err != nil {
		return nil, err
	}
	metadata := map[string]any{
		"waitlist_entry_id": next.ID,
		"client_id":         next.ClientID,
		"sms_sid":           sid,
	}
	if deliveryErr != "" {
		metadata["delivery_error"] = deliveryErr
	}
	if err := a.log(ctx, in.StudioID, "waitlist_notified", metadata); err != nil {
		return nil, err
	}

	return &CancellationResult{
		CancellationProcessed: true,
		WaitlistNotified:      true,
		NotifiedClient:        next.Client.Name,
		SMSBody:               body,
		SMSSID:                sid,
		DeliveryError:         deliveryErr,
	}, nil
}

// HandleGapFillReply books the slot when the reply is a yes.
func (a *Agent) HandleGapFillReply(ctx context.Context, in GapFillReplyInput) (*GapFillReplyResult, error) {
	client, err := a.lifecycle.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || domain.HiddenFrom(client.StudioID, in.StudioID) {
		return nil, domain.NewNotFoundError("client")
	}

	if !reply.IsAffirmative(in.ReplyText, reply.GapFillPhrases...) {
		if err := a.log(ctx, in.StudioID, "waitlist_declined", map[string]any{"client_id": in.ClientID}); err != nil {
			return nil, err
		}
		return &GapFillReplyResult{Filled: false}, nil
	}

	claimed, err := a.idempotency.Claim(ctx, idempotency.GapFillKey(in.ClientID, in.Service, in.ScheduledAt), idempotency.DefaultTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &GapFillReplyResult{Filled: true, Duplicate: true}, nil
	}

	bookingID, err := a.lifecycle.CreateBooking(ctx, lifecycle.NewBooking{
		ClientID:    in.ClientID,
		Service:     in.Service,
		Price:       in.Price,
		ScheduledAt: in.ScheduledAt,
		Source:      models.SourceWaitlist,
		StudioID:    in.StudioID,
	})
	if err != nil {
		return nil, err
	}

	if err := a.log(ctx, in.StudioID, "slot_filled", map[string]any{
		"booking_id": bookingID,
		"client_id":  in.ClientID,
	}); err != nil {
		return nil, err
	}

	a.logger.Info("slot filled", "booking_id", bookingID, "client_id", in.ClientID)
	return &GapFillReplyResult{Filled: true, BookingID: bookingID}, nil
}

func (a *Agent) studioName(ctx context.Context, studioID string) (string, error) {
	if studioID == "" {
		return a.defaultName, nil
	}
	studio, err := a.tenants.GetStudio(ctx, studioID)
	if err != nil {
		return "", err
	}
	if studio == nil {
		return a.defaultName, nil
	}
	return studio.Name, nil
}

func (a *Agent) log(ctx context.Context, studioID, action string, metadata map[string]any) error {
	return a.audit.Log(ctx, audit.Event{
		StudioID: studioID,
		Agent:    models.AgentGapFiller,
		Action:   action,
		Metadata: metadata,
	})
}

func firstName(full string) string {
	if parts := strings.Fields(full); len(parts) > 0 {
		return parts[0]
	}
	return "there"
}
