package socialleads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

const defaultListLimit = 50

// Store persists social leads. Every evaluated post is saved, so a row also
// serves as the dedup record for its post.
type Store struct {
	db bun.IDB
}

// NewStore creates a new social lead store.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// NewSocialLead holds the fields of a lead being saved.
type NewSocialLead struct {
	StudioID       string
	Platform       models.Platform
	PostID         string
	PostURL        string
	PostTitle      string
	PostBody       string
	Subreddit      string
	Author         string
	MatchScore     float64
	MatchReasoning string
	DraftedReply   string
	Status         models.SocialLeadStatus
}

// HasSeenPost reports whether the studio already has a lead for postID.
func (s *Store) HasSeenPost(ctx context.Context, studioID, postID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*models.SocialLead)(nil)).
		Where("sl.studio_id = ?", studioID).
		Where("sl.post_id = ?", postID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return exists, nil
}

// SaveSocialLead inserts a lead and returns its ID.
func (s *Store) SaveSocialLead(ctx context.Context, in NewSocialLead) (string, error) {
	platform := in.Platform
	if platform == "" {
		platform = models.PlatformReddit
	}
	status := in.Status
	if status == "" {
		status = models.LeadNew
	}
	if !ValidStatus(status) {
		return "", domain.NewValidationError(fmt.Sprintf("invalid lead status %q", status))
	}

	lead := &models.SocialLead{
		ID:             uuid.NewString(),
		StudioID:       in.StudioID,
		Platform:       platform,
		PostID:         in.PostID,
		PostURL:        in.PostURL,
		PostTitle:      in.PostTitle,
		PostBody:       in.PostBody,
		Subreddit:      in.Subreddit,
		Author:         in.Author,
		MatchScore:     in.MatchScore,
		MatchReasoning: in.MatchReasoning,
		DraftedReply:   in.DraftedReply,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(lead).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save social lead: %w", err)
	}
	return lead.ID, nil
}

// GetLead returns the lead or nil.
func (s *Store) GetLead(ctx context.Context, leadID string) (*models.SocialLead, error) {
	return getLead(ctx, s.db, leadID)
}

func getLead(ctx context.Context, db bun.IDB, leadID string) (*models.SocialLead, error) {
	lead := new(models.SocialLead)
	err := db.NewSelect().Model(lead).Where("sl.id = ?", leadID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get social lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns a studio's leads, newest first. An empty status returns
// every status.
func (s *Store) ListLeads(ctx context.Context, studioID string, status models.SocialLeadStatus, limit int) ([]models.SocialLead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	leads := []models.SocialLead{}
	q := s.db.NewSelect().
		Model(&leads).
		Where("sl.studio_id = ?", studioID).
		OrderExpr("sl.created_at DESC, sl.rowid DESC").
		Limit(limit)
	if status != "" {
		q = q.Where("sl.status = ?", status)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list social leads: %w", err)
	}
	return leads, nil
}

// UpdateLeadStatus moves a lead to status to. Illegal moves return a
// *TransitionError and write nothing. Re-dismissing a dismissed lead succeeds.
func (s *Store) UpdateLeadStatus(ctx context.Context, leadID string, to models.SocialLeadStatus) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		lead, err := getLead(ctx, tx, leadID)
		if err != nil {
			return err
		}
		if lead == nil {
			return domain.NewNotFoundError("social lead")
		}

		if lead.Status == to && to == models.LeadDismissed {
			return nil
		}
		if !CanTransition(lead.Status, to) {
			return RejectTransition(leadID, lead.Status, to)
		}

		_, err = tx.NewUpdate().
			Model((*models.SocialLead)(nil)).
			Set("status = ?", to).
			Where("id = ?", leadID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update social lead status: %w", err)
		}
		return nil
	})
}
