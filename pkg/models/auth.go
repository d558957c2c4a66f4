package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MagicToken is a short-lived single-use login token.
type MagicToken struct {
	bun.BaseModel `bun:"table:magic_tokens,alias:mt"`

	ID        string    `bun:"id,pk" json:"id"`
	StudioID  string    `bun:"studio_id,notnull" json:"studio_id"`
	Token     string    `bun:"token,notnull,unique" json:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
	Used      bool      `bun:"used,notnull,default:false" json:"used"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// StudioSession is what a validated magic link resolves to.
type StudioSession struct {
	StudioID string `json:"studio_id"`
	APIKey   string `json:"api_key"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
}

// MagicLinkRequest asks for a login link
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyTokenRequest exchanges a magic token for a session
type VerifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Token   string         `json:"token"`
	Session *StudioSession `json:"studio"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
