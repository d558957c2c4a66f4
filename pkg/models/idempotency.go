package models

import (
	"time"

	"github.com/uptrace/bun"
)

// IdempotencyKey marks an external side effect as already performed.
type IdempotencyKey struct {
	bun.BaseModel `bun:"table:idempotency_keys,alias:ik"`

	Key       string    `bun:"key,pk" json:"key"`
	Scope     string    `bun:"scope,notnull,default:''" json:"scope"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
}
