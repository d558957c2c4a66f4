// Package socialhunter finds potential clients in Reddit posts and in
// negative Google Maps reviews of nearby competitors.
package socialhunter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/googlemaps"
	"github.com/jordanlanch/beautyos/pkg/idempotency"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/reddit"
	"github.com/jordanlanch/beautyos/pkg/socialleads"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

const (
	// RelevanceThreshold is the minimum match score saved as a new lead.
	RelevanceThreshold = 0.5

	DefaultLimitPerSearch = 10
	DefaultMaxRating      = 2

	recencyWindow    = "week"
	maxStoredBody    = 2000
	maxDismissedBody = 500
)

// ReviewFinder locates negative reviews near a studio.
type ReviewFinder interface {
	Geocode(ctx context.Context, location string) (*googlemaps.LatLng, error)
	NegativeReviews(ctx context.Context, lat, lng float64, maxRating int, excludeName string, types []string) ([]googlemaps.Review, error)
}

// LeadNotifier announces new leads to the owner.
type LeadNotifier interface {
	NotifySocialLead(ctx context.Context, studioName string, lead *models.SocialLead) error
}

// LeadRecorder counts new leads per platform.
type LeadRecorder interface {
	SocialLeadFound(platform string)
}

// Evaluation is the LLM verdict on one post or review.
type Evaluation struct {
	IsRelevant   *bool    `json:"is_relevant" validate:"required"`
	MatchScore   *float64 `json:"match_score" validate:"required,gte=0,lte=1"`
	Reasoning    string   `json:"reasoning"`
	DraftedReply string   `json:"drafted_reply"`
}

func (e *Evaluation) relevant() bool {
	return *e.IsRelevant && *e.MatchScore >= RelevanceThreshold
}

// Deps are the collaborators of a Hunter. Notifier and Recorder are optional.
type Deps struct {
	Tenants       *tenant.Store
	Leads         *socialleads.Store
	Audit         *audit.Service
	Idempotency   idempotency.Store
	LLM           llm.LLMClient
	Reddit        reddit.Searcher
	Poster        reddit.Poster
	Maps          ReviewFinder
	Notifier      LeadNotifier
	Recorder      LeadRecorder
	BusinessTypes []string
}

// Hunter runs social lead discovery.
type Hunter struct {
	Deps
	logger logger.Logger
}

// NewHunter creates a social hunter.
func NewHunter(d Deps, log logger.Logger) *Hunter {
	return &Hunter{Deps: d, logger: log.With("component", "social_hunter")}
}

// HuntInput configures one Reddit scan. Empty overrides use the studio's
// settings.
type HuntInput struct {
	StudioID       string
	DryRun         bool
	Subreddits     []string
	Keywords       []string
	LimitPerSearch int
}

// MapsHuntInput configures one Google Maps scan.
type MapsHuntInput struct {
	StudioID      string
	MaxRating     int
	BusinessTypes []string
}

// HuntResult summarizes a scan. Error is set when the scan could not run.
type HuntResult struct {
	Error         string `json:"error,omitempty"`
	RawFound      int    `json:"raw_found"`
	NewPosts      int    `json:"new_posts"`
	LeadsRelevant int    `json:"leads_relevant"`
	LeadsSaved    int    `json:"leads_saved"`
}

// ApproveResult reports what approving a lead did.
type ApproveResult struct {
	Approved         bool   `json:"approved,omitempty"`
	OutreachTemplate string `json:"outreach_template,omitempty"`
	Replied          bool   `json:"replied"`
	CommentID        string `json:"comment_id,omitempty"`
	Error            string `json:"error,omitempty"`
}

// StudioRun is one scan performed by RunAllStudios.
type StudioRun struct {
	StudioID string      `json:"studio_id"`
	Source   string      `json:"source"`
	Result   *HuntResult `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// candidate is a post or review awaiting evaluation.
type candidate struct {
	platform models.Platform
	postID   string
	url      string
	title    string
	body     string
	source   string
	author   string
	message  string
	metadata map[string]any
}

// RunSocialHunter scans the studio's subreddits for recommendation requests.
// Nothing is posted here; replies wait for ApproveAndReply.
func (h *Hunter) RunSocialHunter(ctx context.Context, in HuntInput) (*HuntResult, error) {
	cfg, err := h.Tenants.ResolveConfig(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &HuntResult{Error: "Studio not found"}, nil
	}

	subreddits := in.Subreddits
	if len(subreddits) == 0 {
		subreddits = cfg.Studio.TargetSubreddits
	}
	keywords := in.Keywords
	if len(keywords) == 0 {
		keywords = studioKeywords(cfg)
	}
	limit := in.LimitPerSearch
	if limit <= 0 {
		limit = DefaultLimitPerSearch
	}

	if len(subreddits) == 0 {
		if err := h.log(ctx, in.StudioID, "scan_skipped", map[string]any{"reason": "No subreddits configured"}); err != nil {
			return nil, err
		}
		return &HuntResult{Error: "No subreddits configured for this studio."}, nil
	}

	var posts []reddit.Post
	if h.Reddit != nil {
		posts, err = h.Reddit.SearchPosts(ctx, subreddits, keywords, limit, recencyWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to search reddit: %w", err)
		}
	}

	sample := keywords
	if len(sample) > 5 {
		sample = sample[:5]
	}
	if err := h.log(ctx, in.StudioID, "scan_started", map[string]any{
		"subreddits":      subreddits,
		"keywords":        sample,
		"raw_posts_found": len(posts),
	}); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(posts))
	for _, p := range posts {
		candidates = append(candidates, candidate{
			platform: models.PlatformReddit,
			postID:   p.FullID,
			url:      p.URL,
			title:    p.Title,
			body:     p.Body,
			source:   p.Subreddit,
			author:   p.Author,
			message:  postMessage(p),
			metadata: map[string]any{
				"post_url":  p.URL,
				"subreddit": p.Subreddit,
				"dry_run":   in.DryRun,
			},
		})
	}

	return h.evaluate(ctx, cfg, candidates, postPrompt(cfg), "scan_complete")
}

// RunGoogleMapsHunter scans negative reviews of businesses near the studio.
func (h *Hunter) RunGoogleMapsHunter(ctx context.Context, in MapsHuntInput) (*HuntResult, error) {
	cfg, err := h.Tenants.ResolveConfig(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &HuntResult{Error: "Studio not found"}, nil
	}

	maxRating := in.MaxRating
	if maxRating <= 0 {
		maxRating = DefaultMaxRating
	}
	types := in.BusinessTypes
	if len(types) == 0 {
		types = h.BusinessTypes
	}

	location := cfg.Studio.Location
	if location == "" {
		if err := h.log(ctx, in.StudioID, "gmaps_scan_skipped", map[string]any{"reason": "No location configured for this studio"}); err != nil {
			return nil, err
		}
		return &HuntResult{Error: "No location configured. Set a zip code or city in studio settings."}, nil
	}

	if h.Maps == nil {
		return h.skipMaps(ctx, in.StudioID, "Google Maps not configured")
	}
	coords, err := h.Maps.Geocode(ctx, location)
	if err != nil {
		if errors.Is(err, googlemaps.ErrNotConfigured) {
			return h.skipMaps(ctx, in.StudioID, "Google Maps not configured")
		}
		h.logger.Warn("geocode failed", "location", location, "error", err)
		return h.skipMaps(ctx, in.StudioID, fmt.Sprintf("Could not geocode location: %s", location))
	}

	reviews, err := h.Maps.NegativeReviews(ctx, coords.Lat, coords.Lng, maxRating, cfg.Studio.Name, types)
	if err != nil {
		return nil, fmt.Errorf("failed to search reviews: %w", err)
	}

	if err := h.log(ctx, in.StudioID, "gmaps_scan_started", map[string]any{
		"location":          location,
		"coords":            coords,
		"raw_reviews_found": len(reviews),
	}); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(reviews))
	for _, r := range reviews {
		candidates = append(candidates, candidate{
			platform: models.PlatformGoogleMaps,
			postID:   r.ReviewID,
			title:    fmt.Sprintf("%d-star review of %s", r.Rating, r.PlaceName),
			body:     r.Text,
			source:   r.PlaceName,
			author:   r.Author,
			message:  reviewMessage(r),
			metadata: map[string]any{
				"platform":      string(models.PlatformGoogleMaps),
				"place_name":    r.PlaceName,
				"review_rating": r.Rating,
			},
		})
	}

	return h.evaluate(ctx, cfg, candidates, reviewPrompt(cfg), "gmaps_scan_complete")
}

func (h *Hunter) skipMaps(ctx context.Context, studioID, reason string) (*HuntResult, error) {
	if err := h.log(ctx, studioID, "gmaps_scan_skipped", map[string]any{"reason": reason}); err != nil {
		return nil, err
	}
	return &HuntResult{Error: reason}, nil
}

// evaluate saves every unseen candidate: relevant ones as new leads, the
// rest as dismissed so they are never evaluated again.
func (h *Hunter) evaluate(ctx context.Context, cfg *tenant.StudioConfig, candidates []candidate, systemPrompt, completeAction string) (*HuntResult, error) {
	studioID := cfg.Studio.ID
	result := &HuntResult{RawFound: len(candidates)}

	fresh := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		seen, err := h.Leads.HasSeenPost(ctx, studioID, c.postID)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, c)
		}
	}
	result.NewPosts = len(fresh)

	if len(fresh) == 0 {
		if err := h.log(ctx, studioID, completeAction, map[string]any{
			"new_posts": 0,
			"message":   "No new posts to evaluate",
		}); err != nil {
			return nil, err
		}
		return result, nil
	}

	for _, c := range fresh {
		lead := socialleads.NewSocialLead{
			StudioID:  studioID,
			Platform:  c.platform,
			PostID:    c.postID,
			PostURL:   c.url,
			PostTitle: c.title,
			PostBody:  truncate(c.body, maxStoredBody),
			Subreddit: c.source,
			Author:    c.author,
			Status:    models.LeadDismissed,
		}

		eval, err := llm.CallStructured[Evaluation](ctx, h.LLM, systemPrompt, c.message)
		if err != nil {
			h.logger.Warn("llm evaluation failed", "post_id", c.postID, "error", err)
			lead.MatchReasoning = fmt.Sprintf("LLM evaluation failed: %v", err)
			if _, err := h.Leads.SaveSocialLead(ctx, lead); err != nil {
				return nil, err
			}
			continue
		}

		lead.MatchScore = *eval.MatchScore
		lead.MatchReasoning = eval.Reasoning

		if !eval.relevant() {
			lead.PostBody = truncate(c.body, maxDismissedBody)
			if _, err := h.Leads.SaveSocialLead(ctx, lead); err != nil {
				return nil, err
			}
			continue
		}

		result.LeadsRelevant++
		lead.Status = models.LeadNew
		lead.DraftedReply = eval.DraftedReply
		leadID, err := h.Leads.SaveSocialLead(ctx, lead)
		if err != nil {
			return nil, err
		}
		result.LeadsSaved++

		metadata := map[string]any{"lead_id": leadID, "match_score": lead.MatchScore}
		for k, v := range c.metadata {
			metadata[k] = v
		}
		if err := h.log(ctx, studioID, "lead_found", metadata); err != nil {
			return nil, err
		}
		h.announce(ctx, cfg.Studio.Name, leadID)
	}

	if err := h.log(ctx, studioID, completeAction, map[string]any{
		"raw_found":      result.RawFound,
		"new_posts":      result.NewPosts,
		"leads_relevant": result.LeadsRelevant,
		"leads_saved":    result.LeadsSaved,
	}); err != nil {
		return nil, err
	}

	h.logger.Info("scan complete",
		"studio_id", studioID,
		"action", completeAction,
		"new", result.NewPosts,
		"saved", result.LeadsSaved,
	)
	return result, nil
}

func (h *Hunter) announce(ctx context.Context, studioName, leadID string) {
	lead, err := h.Leads.GetLead(ctx, leadID)
	if err != nil || lead == nil {
		return
	}
	if h.Recorder != nil {
		h.Recorder.SocialLeadFound(string(lead.Platform))
	}
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.NotifySocialLead(ctx, studioName, lead); err != nil {
		h.logger.Warn("failed to notify social lead", "lead_id", leadID, "error", err)
	}
}

// ApproveAndReply approves a new lead. Reddit leads get their drafted reply
// posted; Google Maps leads return the outreach template for the owner.
func (h *Hunter) ApproveAndReply(ctx context.Context, leadID, studioID string) (*ApproveResult, error) {
	lead, err := h.Leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil || domain.HiddenFrom(lead.StudioID, studioID) {
		return nil, domain.NewNotFoundError("social lead")
	}
	if lead.Status != models.LeadNew {
		return nil, socialleads.RejectTransition(leadID, lead.Status, models.LeadApproved)
	}
	if studioID == "" {
		studioID = lead.StudioID
	}

	if lead.Platform == models.PlatformGoogleMaps {
		if err := h.Leads.UpdateLeadStatus(ctx, leadID, models.LeadApproved); err != nil {
			return nil, err
		}
		if err := h.log(ctx, studioID, "gmaps_lead_approved", map[string]any{
			"lead_id":    leadID,
			"place_name": lead.Subreddit,
		}); err != nil {
			return nil, err
		}
		return &ApproveResult{Approved: true, OutreachTemplate: lead.DraftedReply}, nil
	}

	claimed, err := h.Idempotency.Claim(ctx, idempotency.ReplyKey(leadID), idempotency.DefaultTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.NewConflictError("reply already in progress for this lead")
	}

	if err := h.Leads.UpdateLeadStatus(ctx, leadID, models.LeadApproved); err != nil {
		return nil, err
	}

	commentID, replyErr := h.postReply(ctx, lead)
	if replyErr != nil {
		if err := h.Leads.UpdateLeadStatus(ctx, leadID, models.LeadFailed); err != nil {
			return nil, err
		}
		if err := h.log(ctx, studioID, "reply_failed", map[string]any{
			"lead_id": leadID,
			"error":   replyErr.Error(),
		}); err != nil {
			return nil, err
		}
		h.logger.Warn("reddit reply failed", "lead_id", leadID, "error", replyErr)
		return &ApproveResult{Replied: false, Error: replyErr.Error()}, nil
	}

	if err := h.Leads.UpdateLeadStatus(ctx, leadID, models.LeadReplied); err != nil {
		return nil, err
	}
	if err := h.log(ctx, studioID, "reply_posted", map[string]any{
		"lead_id":    leadID,
		"comment_id": commentID,
		"post_url":   lead.PostURL,
	}); err != nil {
		return nil, err
	}
	return &ApproveResult{Replied: true, CommentID: commentID}, nil
}

func (h *Hunter) postReply(ctx context.Context, lead *models.SocialLead) (string, error) {
	if h.Poster == nil {
		return "", reddit.ErrNotConfigured
	}
	return h.Poster.Reply(ctx, lead.PostID, lead.DraftedReply)
}

// DismissLead marks a lead dismissed. Dismissing twice succeeds.
func (h *Hunter) DismissLead(ctx context.Context, leadID, studioID string) error {
	lead, err := h.Leads.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	if lead == nil || domain.HiddenFrom(lead.StudioID, studioID) {
		return domain.NewNotFoundError("social lead")
	}
	if studioID == "" {
		studioID = lead.StudioID
	}

	if err := h.Leads.UpdateLeadStatus(ctx, leadID, models.LeadDismissed); err != nil {
		return err
	}
	return h.log(ctx, studioID, "lead_dismissed", map[string]any{"lead_id": leadID})
}

// RunAllStudios runs a dry Reddit scan then a Maps scan for every onboarded
// studio. A failing scan does not stop the others.
func (h *Hunter) RunAllStudios(ctx context.Context) ([]StudioRun, error) {
	studios, err := h.Tenants.ListOnboardedStudios(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]StudioRun, 0, 2*len(studios))
	for _, s := range studios {
		result, err := h.RunSocialHunter(ctx, HuntInput{StudioID: s.ID, DryRun: true})
		runs = append(runs, h.studioRun(s.ID, string(models.PlatformReddit), result, err))

		result, err = h.RunGoogleMapsHunter(ctx, MapsHuntInput{StudioID: s.ID})
		runs = append(runs, h.studioRun(s.ID, string(models.PlatformGoogleMaps), result, err))
	}
	return runs, nil
}

func (h *Hunter) studioRun(studioID, source string, result *HuntResult, err error) StudioRun {
	run := StudioRun{StudioID: studioID, Source: source, Result: result}
	if err != nil {
		h.logger.Error("social hunter scan failed", "studio_id", studioID, "source", source, "error", err)
		run.Error = err.Error()
	}
	return run
}

func (h *Hunter) log(ctx context.Context, studioID, action string, metadata map[string]any) error {
	return h.Audit.Log(ctx, audit.Event{
		StudioID: studioID,
		Agent:    models.AgentSocialHunter,
		Action:   action,
		Metadata: metadata,
	})
}
