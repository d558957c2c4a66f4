package revenue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

// OfferStore records which add-on was pitched for each booking.
type OfferStore struct {
	db bun.IDB
}

// NewOfferStore creates an offer store.
func NewOfferStore(db bun.IDB) *OfferStore {
	return &OfferStore{db: db}
}

// Save stores an open offer. A booking keeps its first offer.
func (s *OfferStore) Save(ctx context.Context, offer *models.PendingOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	offer.Status = models.OfferOpen
	offer.CreatedAt = time.Now().UTC()

	_, err := s.db.NewInsert().
		Model(offer).
		On(`CONFLICT ("booking_id") DO NOTHING`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save pending offer: %w", err)
	}
	return nil
}

// ForBooking returns the booking's offer or nil.
func (s *OfferStore) ForBooking(ctx context.Context, bookingID string) (*models.PendingOffer, error) {
	offer := new(models.PendingOffer)
	err := s.db.NewSelect().Model(offer).Where("po.booking_id = ?", bookingID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending offer: %w", err)
	}
	return offer, nil
}

// Resolve closes an open offer. Offers that are already resolved are left
// untouched.
func (s *OfferStore) Resolve(ctx context.Context, offerID string, status models.OfferStatus) error {
	_, err := s.db.NewUpdate().
		Model((*models.PendingOffer)(nil)).
		Set("status = ?", status).
		Set("resolved_at = ?", time.Now().UTC()).
		Where("id = ?", offerID).
		Where("status = ?", models.OfferOpen).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve pending offer: %w", err)
	}
	return nil
}
