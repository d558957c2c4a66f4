// Package revenue sends add-on offers ahead of appointments and applies
// accepted offers to bookings.
package revenue

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
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

// DefaultLeadTimeHours is the upsell window used when none is configured.
const DefaultLeadTimeHours = 24

// fallbackAddon is applied on a yes when nothing was offered and the studio
// has no add-ons.
var fallbackAddon = models.Addon{Name: "Add-on", Price: 10.00}

// Deps are the collaborators of an Engine.
type Deps struct {
	Tenants       *tenant.Store
	Lifecycle     *lifecycle.Store
	Offers        *OfferStore
	Audit         *audit.Service
	Idempotency   idempotency.Store
	LLM           llm.LLMClient
	SMS           sms.Texter
	LeadTimeHours int
}

// Engine runs the upsell workflow.
type Engine struct {
	Deps
	logger logger.Logger
}

// NewEngine creates a revenue engine.
func NewEngine(d Deps, log logger.Logger) *Engine {
	if d.LeadTimeHours <= 0 {
		d.LeadTimeHours = DefaultLeadTimeHours
	}
	return &Engine{Deps: d, logger: log.With("component", "revenue")}
}

// UpsellDraft is the schema for an LLM drafted upsell SMS.
type UpsellDraft struct {
	SMSBody string `json:"sms_body" validate:"required"`
}

// UpsellResult describes one offer that was sent.
type UpsellResult struct {
	BookingID    string  `json:"booking_id"`
	ClientName   string  `json:"client_name"`
	Service      string  `json:"service"`
	AddonOffered string  `json:"addon_offered"`
	AddonPrice   float64 `json:"addon_price"`
	SMSBody      string  `json:"sms_body"`
	SMSSID       string  `json:"sms_sid"`
}

// ReplyInput is an inbound reply to an upsell SMS.
type ReplyInput struct {
	BookingID string
	ReplyText string
	StudioID  string
	MessageID string
}

// ReplyResult reports what a reply did to the booking.
type ReplyResult struct {
	Accepted     bool    `json:"accepted"`
	Addon        string  `json:"addon,omitempty"`
	AddedRevenue float64 `json:"added_revenue,omitempty"`
	Duplicate    bool    `json:"duplicate,omitempty"`
}

// FindBestAddon picks the add-on to pitch for a booked service: the first
// add-on of the first service whose name contains, or is contained in, the
// booked name. It falls back to the studio's first add-on, then nil.
func (e *Engine) FindBestAddon(ctx context.Context, serviceName, studioID string) (*models.Addon, error) {
	services, err := e.Tenants.ListServices(ctx, studioID)
	if err != nil {
		return nil, err
	}

	booked := strings.ToLower(strings.TrimSpace(serviceName))
	for _, svc := range services {
		name := strings.ToLower(svc.Name)
		if !strings.Contains(booked, name) && !strings.Contains(name, booked) {
			continue
		}
		addons, err := e.Tenants.ListAddonsForService(ctx, svc.ID)
		if err != nil {
			return nil, err
		}
		if len(addons) > 0 {
			return &addons[0], nil
		}
	}

	all, err := e.Tenants.ListAddonsForStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		return &all[0], nil
	}
	return nil, nil
}

// ProcessUpsellWindow offers an add-on for every confirmed booking inside the
// lead time window. Bookings already offered are skipped. An empty studioID
// spans every studio.
func (e *Engine) ProcessUpsellWindow(ctx context.Context, studioID string) ([]UpsellResult, error) {
	bookings, err := e.Lifecycle.FindUpcomingBookings(ctx, e.LeadTimeHours, studioID)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]*tenant.StudioConfig)
	results := make([]UpsellResult, 0, len(bookings))

	for _, b := range bookings {
		bookingStudio := b.StudioID
		if bookingStudio == "" {
			bookingStudio = studioID
		}

		addon, err := e.FindBestAddon(ctx, b.Service, bookingStudio)
		if err != nil {
			return results, err
		}
		if addon == nil {
			continue
		}

		claimed, err := e.Idempotency.Claim(ctx, idempotency.UpsellKey(b.ID), idempotency.DefaultTTL)
		if err != nil {
			return results, err
		}
		if !claimed {
			e.logger.Debug("upsell already sent", "booking_id", b.ID)
			continue
		}

		cfg, ok := configs[bookingStudio]
		if !ok {
			if cfg, err = e.Tenants.ResolveConfig(ctx, bookingStudio); err != nil {
				return results, err
			}
			configs[bookingStudio] = cfg
		}

		first := firstName(b.Client.Name)
		body, err := e.draft(ctx, cfg, first, b.Service, addon)
		if err != nil {
			return results, err
		}

		sid, err := e.SMS.Send(ctx, b.Client.Phone, body)
		if err != nil {
			return results, err
		}

		err = e.Offers.Save(ctx, &models.PendingOffer{
			BookingID:  b.ID,
			StudioID:   bookingStudio,
			AddonID:    addon.ID,
			AddonName:  addon.Name,
			AddonPrice: addon.Price,
			SMSBody:    body,
			SMSSID:     sid,
		})
		if err != nil {
			return results, err
		}

		err = e.Audit.Log(ctx, audit.Event{
			StudioID: bookingStudio,
			Agent:    models.AgentRevenue,
			Action:   "upsell_sent",
			Metadata: map[string]any{
				"booking_id":  b.ID,
				"addon":       addon.Name,
				"addon_price": addon.Price,
				"sms_sid":     sid,
			},
		})
		if err != nil {
			return results, err
		}

		results = append(results, UpsellResult{
			BookingID:    b.ID,
			ClientName:   first,
			Service:      b.Service,
			AddonOffered: addon.Name,
			AddonPrice:   addon.Price,
			SMSBody:      body,
			SMSSID:       sid,
		})
	}

	return results, nil
}

// SweepAll runs the upsell window for every onboarded studio, one at a time.
// A failing studio is logged and the sweep moves on.
func (e *Engine) SweepAll(ctx context.Context) (int, error) {
	studios, err := e.Tenants.ListOnboardedStudios(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, s := range studios {
		results, err := e.ProcessUpsellWindow(ctx, s.ID)
		sent += len(results)
		if err != nil {
			e.logger.Error("upsell sweep failed", "studio_id", s.ID, "error", err)
		}
	}
	return sent, nil
}

func (e *Engine) draft(ctx context.Context, cfg *tenant.StudioConfig, firstName, service string, addon *models.Addon) (string, error) {
	if cfg == nil {
		return fmt.Sprintf("Hey %s! Add a %s ($%.0f) to tomorrow's %s? Reply YES!", firstName, addon.Name, addon.Price, service), nil
	}

	out, err := llm.CallStructured[UpsellDraft](ctx, e.LLM, upsellPrompt(cfg), upsellMessage(firstName, service, addon))
	if err != nil {
		return "", fmt.Errorf("failed to draft upsell sms: %w", err)
	}
	return out.SMSBody, nil
}

// HandleUpsellReply applies the offered add-on when the reply is a yes.
// Replays of an accepted reply are reported as duplicates and change nothing.
func (e *Engine) HandleUpsellReply(ctx context.Context, in ReplyInput) (*ReplyResult, error) {
	booking, err := e.Lifecycle.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || domain.HiddenFrom(booking.StudioID, in.StudioID) {
		return nil, domain.NewNotFoundError("booking")
	}

	studioID := in.StudioID
	if studioID == "" {
		studioID = booking.StudioID
	}

	offer, err := e.Offers.ForBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	if !reply.IsAffirmative(in.ReplyText) {
		if offer != nil && offer.Status == models.OfferOpen {
			if err := e.Offers.Resolve(ctx, offer.ID, models.OfferDeclined); err != nil {
				return nil, err
			}
		}
		err := e.Audit.Log(ctx, audit.Event{
			StudioID: studioID,
			Agent:    models.AgentRevenue,
			Action:   "upsell_declined",
			Metadata: map[string]any{"booking_id": in.BookingID, "reply": in.ReplyText, "message_id": in.MessageID},
		})
		if err != nil {
			return nil, err
		}
		return &ReplyResult{Accepted: false}, nil
	}

	name, price, err := e.resolveOffer(ctx, offer, studioID)
	if err != nil {
		return nil, err
	}

	claimed, err := e.Idempotency.Claim(ctx, idempotency.UpsellReplyKey(in.BookingID), idempotency.DefaultTTL)
	if err != nil {
		return nil, err
	}
	if !claimed || (offer != nil && offer.Status == models.OfferAccepted) {
		return &ReplyResult{Accepted: true, Addon: name, AddedRevenue: price, Duplicate: true}, nil
	}

	if err := e.Lifecycle.ApplyAddonToBooking(ctx, in.BookingID, name, price); err != nil {
		return nil, err
	}
	if offer != nil {
		if err := e.Offers.Resolve(ctx, offer.ID, models.OfferAccepted); err != nil {
			return nil, err
		}
	}

	err = e.Audit.Log(ctx, audit.Event{
		StudioID: studioID,
		Agent:    models.AgentRevenue,
		Action:   "upsell_accepted",
		Metadata: map[string]any{"booking_id": in.BookingID, "addon": name, "revenue": price, "message_id": in.MessageID},
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("upsell accepted", "booking_id", in.BookingID, "addon", name)
	return &ReplyResult{Accepted: true, Addon: name, AddedRevenue: price}, nil
}

// resolveOffer returns what a yes applies: the recorded offer, else the
// studio's first add-on, else the generic fallback.
func (e *Engine) resolveOffer(ctx context.Context, offer *models.PendingOffer, studioID string) (string, float64, error) {
	if offer != nil {
		return offer.AddonName, offer.AddonPrice, nil
	}
	if studioID != "" {
		addons, err := e.Tenants.ListAddonsForStudio(ctx, studioID)
		if err != nil {
			return "", 0, err
		}
		if len(addons) > 0 {
			return addons[0].Name, addons[0].Price, nil
		}
	}
	return fallbackAddon.Name, fallbackAddon.Price, nil
}

func firstName(full string) string {
	if parts := strings.Fields(full); len(parts) > 0 {
		return parts[0]
	}
	return "there"
}
