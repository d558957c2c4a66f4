package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Agent names accepted by the event log.
const (
	AgentVibeCheck    = "vibe_check"
	AgentRevenue      = "revenue"
	AgentGapFiller    = "gap_filler"
	AgentSocialHunter = "social_hunter"
	AgentSystem       = "system"
)

// AgentEvent is an append-only audit row.
type AgentEvent struct {
	bun.BaseModel `bun:"table:agent_events,alias:ae"`

	ID        string         `bun:"id,pk" json:"id"`
	StudioID  string         `bun:"studio_id,nullzero" json:"studio_id,omitempty"`
	Agent     string         `bun:"agent,notnull" json:"agent"`
	Action    string         `bun:"action,notnull" json:"action"`
	Metadata  map[string]any `bun:"metadata,type:json" json:"metadata"`
	CreatedAt time.Time      `bun:"created_at,notnull" json:"created_at"`
}

// DashboardMetrics summarizes what the agents did for a studio.
type DashboardMetrics struct {
	FoundMoney       float64 `json:"found_money"`
	AIChats          int     `json:"ai_chats"`
	HoursReclaimed   float64 `json:"hours_reclaimed"`
	LeadsApproved    int     `json:"leads_approved"`
	LeadsFiltered    int     `json:"leads_filtered"`
	GapFills         int     `json:"gap_fills"`
	SocialLeadsFound int     `json:"social_leads_found"`
}
