package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Platform is the source network of a social lead.
type Platform string

const (
	PlatformReddit     Platform = "reddit"
	PlatformGoogleMaps Platform = "google_maps"
	PlatformInstagram  Platform = "instagram"
	PlatformTwitter    Platform = "twitter"
)

// SocialLeadStatus is the review state of a social lead.
type SocialLeadStatus string

const (
	LeadNew       SocialLeadStatus = "new"
	LeadApproved  SocialLeadStatus = "approved"
	LeadReplied   SocialLeadStatus = "replied"
	LeadDismissed SocialLeadStatus = "dismissed"
	LeadFailed    SocialLeadStatus = "failed"
)

// SocialLead is an external post or review evaluated for a studio. Every
// evaluated post gets a row, which doubles as the dedup record.
type SocialLead struct {
	bun.BaseModel `bun:"table:social_leads,alias:sl"`

	ID             string           `bun:"id,pk" json:"id"`
	StudioID       string           `bun:"studio_id,notnull" json:"studio_id"`
	Platform       Platform         `bun:"platform,notnull,default:'reddit'" json:"platform"`
	PostID         string           `bun:"post_id,notnull" json:"post_id"`
	PostURL        string           `bun:"post_url,notnull,default:''" json:"post_url"`
	PostTitle      string           `bun:"post_title,notnull,default:''" json:"post_title"`
	PostBody       string           `bun:"post_body,notnull,default:''" json:"post_body"`
	Subreddit      string           `bun:"subreddit,notnull,default:''" json:"subreddit"`
	Author         string           `bun:"author,notnull,default:''" json:"author"`
	MatchScore     float64          `bun:"match_score,notnull,default:0" json:"match_score"`
	MatchReasoning string           `bun:"match_reasoning,notnull,default:''" json:"match_reasoning"`
	DraftedReply   string           `bun:"drafted_reply,notnull,default:''" json:"drafted_reply"`
	Status         SocialLeadStatus `bun:"status,notnull,default:'new'" json:"status"`
	CreatedAt      time.Time        `bun:"created_at,notnull" json:"created_at"`
}
