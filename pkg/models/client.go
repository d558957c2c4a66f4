package models

import (
	"time"

	"github.com/uptrace/bun"
)

// IntakeStatus is the screening outcome for a prospective client.
type IntakeStatus string

const (
	IntakePending  IntakeStatus = "pending"
	IntakeApproved IntakeStatus = "approved"
	IntakeDeclined IntakeStatus = "declined"
)

// Client is a person who contacted a studio. StudioID is empty for legacy
// single-tenant rows.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID              string       `bun:"id,pk" json:"id"`
	StudioID        string       `bun:"studio_id,nullzero" json:"studio_id,omitempty"`
	Name            string       `bun:"name,notnull,default:''" json:"name"`
	Phone           string       `bun:"phone,notnull,default:''" json:"phone"`
	InstagramHandle string       `bun:"instagram_handle,notnull,default:''" json:"instagram_handle"`
	IntakeStatus    IntakeStatus `bun:"intake_status,notnull,default:'pending'" json:"intake_status"`
	VibeScore       float64      `bun:"vibe_score,notnull,default:0" json:"vibe_score"`
	IntakeReasoning string       `bun:"intake_reasoning,notnull,default:''" json:"intake_reasoning"`
	CreatedAt       time.Time    `bun:"created_at,notnull" json:"created_at"`
}
