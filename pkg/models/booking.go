package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BookingStatus is the state of an appointment.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// BookingSource records where an appointment came from.
type BookingSource string

const (
	SourceInstagram BookingSource = "instagram"
	SourceWeb       BookingSource = "web"
	SourceReferral  BookingSource = "referral"
	SourceWaitlist  BookingSource = "waitlist"
)

// Valid reports whether s is a known source.
func (s BookingSource) Valid() bool {
	switch s {
	case SourceInstagram, SourceWeb, SourceReferral, SourceWaitlist:
		return true
	}
	return false
}

// AppliedAddon is one upsell added to a booking.
type AppliedAddon struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Booking is an appointment. FinalPrice always equals OriginalPrice plus the
// sum of AddOns.
type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID            string         `bun:"id,pk" json:"id"`
	StudioID      string         `bun:"studio_id,nullzero" json:"studio_id,omitempty"`
	ClientID      string         `bun:"client_id,nullzero" json:"client_id,omitempty"`
	Service       string         `bun:"service,notnull" json:"service"`
	AddOns        []AppliedAddon `bun:"add_ons,type:json" json:"add_ons"`
	OriginalPrice float64        `bun:"original_price,notnull" json:"original_price"`
	FinalPrice    float64        `bun:"final_price,notnull" json:"final_price"`
	ScheduledAt   time.Time      `bun:"scheduled_at,notnull" json:"scheduled_at"`
	Status        BookingStatus  `bun:"status,notnull,default:'confirmed'" json:"status"`
	Source        BookingSource  `bun:"source,notnull,default:'instagram'" json:"source"`
	CreatedAt     time.Time      `bun:"created_at,notnull" json:"created_at"`

	Client *Client `bun:"rel:belongs-to,join:client_id=id" json:"client,omitempty"`
}

// WaitlistEntry is a client waiting for a slot for a service. Notified only
// ever goes from false to true.
type WaitlistEntry struct {
	bun.BaseModel `bun:"table:waitlist,alias:w"`

	ID          string    `bun:"id,pk" json:"id"`
	StudioID    string    `bun:"studio_id,nullzero" json:"studio_id,omitempty"`
	ClientID    string    `bun:"client_id,nullzero" json:"client_id"`
	Service     string    `bun:"service,notnull" json:"service"`
	PreferredAt string    `bun:"preferred_at,notnull,default:''" json:"preferred_at"`
	Notified    bool      `bun:"notified,notnull,default:false" json:"notified"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`

	Client *Client `bun:"rel:belongs-to,join:client_id=id" json:"client,omitempty"`
}

// OfferStatus tracks the reply to an upsell offer.
type OfferStatus string

const (
	OfferOpen     OfferStatus = "open"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

// PendingOffer records which add-on was pitched for a booking, so a reply
// applies exactly what was offered.
type PendingOffer struct {
	bun.BaseModel `bun:"table:pending_offers,alias:po"`

	ID         string      `bun:"id,pk" json:"id"`
	BookingID  string      `bun:"booking_id,notnull,unique" json:"booking_id"`
	StudioID   string      `bun:"studio_id,nullzero" json:"studio_id,omitempty"`
	AddonID    string      `bun:"addon_id,notnull,default:''" json:"addon_id"`
	AddonName  string      `bun:"addon_name,notnull" json:"addon_name"`
	AddonPrice float64     `bun:"addon_price,notnull" json:"addon_price"`
	SMSBody    string      `bun:"sms_body,notnull,default:''" json:"sms_body"`
	SMSSID     string      `bun:"sms_sid,notnull,default:''" json:"sms_sid"`
	Status     OfferStatus `bun:"status,notnull,default:'open'" json:"status"`
	CreatedAt  time.Time   `bun:"created_at,notnull" json:"created_at"`
	ResolvedAt time.Time   `bun:"resolved_at,nullzero" json:"resolved_at,omitempty"`
}
