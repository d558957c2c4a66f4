// Package magiclink implements passwordless studio sign-in with single-use
// emailed tokens.
package magiclink

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/uptrace/bun"
)

// TokenTTL is how long a magic link stays valid.
const TokenTTL = 15 * time.Minute

// Mailer delivers sign-in links.
type Mailer interface {
	SendMagicLink(ctx context.Context, toEmail, token, studioName string) (bool, error)
}

// Service issues and redeems magic tokens.
type Service struct {
	db      bun.IDB
	studios *tenant.Store
	mailer  Mailer
	logger  logger.Logger
	now     func() time.Time
}

// NewService creates a new magic link service.
func NewService(db bun.IDB, studios *tenant.Store, mailer Mailer, log logger.Logger) *Service {
	return &Service{
		db:      db,
		studios: studios,
		mailer:  mailer,
		logger:  log.With("component", "magiclink"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateToken issues a new token for the studio.
func (s *Service) CreateToken(ctx context.Context, studioID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	now := s.now()
	row := &models.MagicToken{
		ID:        uuid.NewString(),
		StudioID:  studioID,
		Token:     token,
		ExpiresAt: now.Add(TokenTTL),
		CreatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create magic token: %w", err)
	}
	return token, nil
}

// ValidateToken redeems a token. It returns nil, nil when the token is
// unknown, used or expired. A token redeems at most once.
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.StudioSession, error) {
	if token == "" {
		return nil, nil
	}

	var session *models.StudioSession
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(models.MagicToken)
		err := tx.NewSelect().
			Model(row).
			Where("mt.token = ?", token).
			Where("mt.used = ?", false).
			Where("mt.expires_at > ?", s.now()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get magic token: %w", err)
		}

		res, err := tx.NewUpdate().
			Model((*models.MagicToken)(nil)).
			Set("used = ?", true).
			Where("id = ?", row.ID).
			Where("used = ?", false).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark magic token used: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		studio := new(models.Studio)
		err = tx.NewSelect().Model(studio).Where("s.id = ?", row.StudioID).Limit(1).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get studio: %w", err)
		}

		session = &models.StudioSession{
			StudioID: studio.ID,
			APIKey:   studio.APIKey,
			Slug:     studio.Slug,
			Name:     studio.Name,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CleanupExpired deletes used and expired tokens.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*models.MagicToken)(nil)).
		WhereOr("used = ?", true).
		WhereOr("expires_at < ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up magic tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RequestLink emails a sign-in link when email belongs to a studio. Unknown
// emails and delivery failures are only logged, so callers cannot tell
// which addresses are registered.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	studio, err := s.studios.GetStudioByEmail(ctx, email)
	if err != nil {
		return err
	}
	if studio == nil {
		s.logger.Info("magic link requested for unknown email")
		return nil
	}

	token, err := s.CreateToken(ctx, studio.ID)
	if err != nil {
		return err
	}

	sent, err := s.mailer.SendMagicLink(ctx, studio.Email, token, studio.Name)
	if err != nil {
		s.logger.Error("failed to send magic link", "studio_id", studio.ID, "error", err)
		return nil
	}
	s.logger.Info("magic link issued", "studio_id", studio.ID, "sent", sent)
	return nil
}
