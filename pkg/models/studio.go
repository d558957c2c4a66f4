package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BrandVoice selects the tone presets used when prompting the LLM.
type BrandVoice string

const (
	BrandVoiceProfessionalChill BrandVoice = "professional_chill"
	BrandVoiceWarmBubbly        BrandVoice = "warm_bubbly"
	BrandVoiceLuxuryExclusive   BrandVoice = "luxury_exclusive"
)

// Valid reports whether v is one of the known presets.
func (v BrandVoice) Valid() bool {
	switch v {
	case BrandVoiceProfessionalChill, BrandVoiceWarmBubbly, BrandVoiceLuxuryExclusive:
		return true
	}
	return false
}

// Studio is a tenant: one business using the platform.
type Studio struct {
	bun.BaseModel `bun:"table:studios,alias:s"`

	ID                 string     `bun:"id,pk" json:"id"`
	Slug               string     `bun:"slug,notnull,unique" json:"slug"`
	APIKey             string     `bun:"api_key,notnull,unique" json:"-"`
	Email              string     `bun:"email,notnull,default:''" json:"email"`
	Name               string     `bun:"name,notnull" json:"name"`
	OwnerName          string     `bun:"owner_name,notnull,default:''" json:"owner_name"`
	Phone              string     `bun:"phone,notnull,default:''" json:"phone"`
	IGHandle           string     `bun:"ig_handle,notnull,default:''" json:"ig_handle"`
	BrandVoice         BrandVoice `bun:"brand_voice,notnull,default:'professional_chill'" json:"brand_voice"`
	DepositAmount      float64    `bun:"deposit_amount,notnull,default:25" json:"deposit_amount"`
	LateFee            float64    `bun:"late_fee,notnull,default:15" json:"late_fee"`
	CancelWindowHours  int        `bun:"cancel_window_hours,notnull,default:24" json:"cancel_window_hours"`
	BookingURL         string     `bun:"booking_url,notnull,default:''" json:"booking_url"`
	Location           string     `bun:"location,notnull,default:''" json:"location"`
	TargetSubreddits   []string   `bun:"target_subreddits,type:json" json:"target_subreddits"`
	OnboardingComplete bool       `bun:"onboarding_complete,notnull,default:false" json:"onboarding_complete"`
	CreatedAt          time.Time  `bun:"created_at,notnull" json:"created_at"`
}

// Service is a bookable menu item. Inactive services are soft deleted.
type Service struct {
	bun.BaseModel `bun:"table:services,alias:svc"`

	ID          string    `bun:"id,pk" json:"id"`
	StudioID    string    `bun:"studio_id,notnull" json:"studio_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Price       float64   `bun:"price,notnull" json:"price"`
	DurationMin int       `bun:"duration_min,notnull" json:"duration_min"`
	Active      bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`

	Addons []Addon `bun:"-" json:"addons,omitempty"`
}

// Addon is an upsell attached to a service. StudioID is denormalized for
// tenant-wide lookups.
type Addon struct {
	bun.BaseModel `bun:"table:service_addons,alias:a"`

	ID          string    `bun:"id,pk" json:"id"`
	ServiceID   string    `bun:"service_id,notnull" json:"service_id"`
	StudioID    string    `bun:"studio_id,notnull" json:"studio_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Price       float64   `bun:"price,notnull" json:"price"`
	DurationMin int       `bun:"duration_min,notnull" json:"duration_min"`
	Pitch       string    `bun:"pitch,notnull,default:''" json:"pitch"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}
