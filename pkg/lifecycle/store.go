package lifecycle

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

// Store handles clients, bookings and the waitlist.
type Store struct {
	db bun.IDB
}

// NewStore creates a new lifecycle store.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// NewClient holds the fields of a client being created.
type NewClient struct {
	Name            string
	Phone           string
	InstagramHandle string
	StudioID        string
}

// CreateClient stores a new pending client and returns its ID.
func (s *Store) CreateClient(ctx context.Context, in NewClient) (string, error) {
	client := &models.Client{
		ID:              uuid.NewString(),
		StudioID:        in.StudioID,
		Name:            in.Name,
		Phone:           in.Phone,
		InstagramHandle: in.InstagramHandle,
		IntakeStatus:    models.IntakePending,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(client).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	return client.ID, nil
}

// GetClient returns the client or nil.
func (s *Store) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	client := new(models.Client)
	err := s.db.NewSelect().Model(client).Where("c.id = ?", clientID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// UpdateClientIntake records a screening outcome. The move is checked against
// the intake FSM.
func (s *Store) UpdateClientIntake(ctx context.Context, clientID string, status models.IntakeStatus, vibeScore float64, reasoning string) error {
	if !ValidIntakeStatus(status) {
		return domain.NewValidationError(fmt.Sprintf("invalid intake status %q", status))
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		client := new(models.Client)
		err := tx.NewSelect().Model(client).Where("c.id = ?", clientID).Limit(1).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewNotFoundError("client")
			}
			return fmt.Errorf("failed to get client: %w", err)
		}

		if !CanTransition(client.IntakeStatus, status) {
			return RejectTransition(client.IntakeStatus, status)
		}

		_, err = tx.NewUpdate().
			Model((*models.Client)(nil)).
			Set("intake_status = ?", status).
			Set("vibe_score = ?", vibeScore).
			Set("intake_reasoning = ?", reasoning).
			Where("id = ?", clientID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update client intake: %w", err)
		}
		return nil
	})
}

// NewBooking holds the fields of a booking being created.
type NewBooking struct {
	ClientID    string
	Service     string
	Price       float64
	ScheduledAt time.Time
	Source      models.BookingSource
	StudioID    string
}

// CreateBooking stores a confirmed booking with no add-ons.
func (s *Store) CreateBooking(ctx context.Context, in NewBooking) (string, error) {
	source := in.Source
	if source == "" {
		source = models.SourceInstagram
	}
	if !source.Valid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid booking source %q", source))
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		StudioID:      in.StudioID,
		ClientID:      in.ClientID,
		Service:       in.Service,
		AddOns:        []models.AppliedAddon{},
		OriginalPrice: in.Price,
		FinalPrice:    in.Price,
		ScheduledAt:   in.ScheduledAt.UTC(),
		Status:        models.BookingConfirmed,
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(booking).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create booking: %w", err)
	}
	return booking.ID, nil
}

// GetBooking returns the booking or nil.
func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return getBooking(ctx, s.db, bookingID)
}

func getBooking(ctx context.Context, db bun.IDB, bookingID string) (*models.Booking, error) {
	booking := new(models.Booking)
	err := db.NewSelect().Model(booking).Where("b.id = ?", bookingID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ApplyAddonToBooking appends an add-on and raises the final price. A missing
// booking is ignored. Callers guard against double application.
func (s *Store) ApplyAddonToBooking(ctx context.Context, bookingID, name string, price float64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		booking, err := getBooking(ctx, tx, bookingID)
		if err != nil || booking == nil {
			return err
		}

		booking.AddOns = append(booking.AddOns, models.AppliedAddon{Name: name, Price: price})
		booking.FinalPrice += price
		_, err = tx.NewUpdate().
			Model(booking).
			Column("add_ons", "final_price").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to apply addon: %w", err)
		}
		return nil
	})
}

// CancelBooking marks the booking cancelled.
func (s *Store) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := s.db.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", models.BookingCancelled).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	return nil
}

// FindUpcomingBookings returns confirmed bookings scheduled within the next
// hours, with their client. An empty studioID spans every studio.
func (s *Store) FindUpcomingBookings(ctx context.Context, hours int, studioID string) ([]models.Booking, error) {
	now := time.Now().UTC()
	bookings := []models.Booking{}

	q := s.db.NewSelect().
		Model(&bookings).
		Relation("Client").
		Where("b.status = ?", models.BookingConfirmed).
		Where("b.scheduled_at BETWEEN ? AND ?", now, now.Add(time.Duration(hours)*time.Hour)).
		OrderExpr("b.scheduled_at ASC")
	if studioID != "" {
		q = q.Where("b.studio_id = ?", studioID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to find upcoming bookings: %w", err)
	}
	return withClients(bookings), nil
}

// withClients drops rows whose client is missing, mirroring an inner join.
func withClients(bookings []models.Booking) []models.Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if b.Client != nil && b.Client.ID != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewWaitlistEntry holds the fields of a waitlist entry being created.
type NewWaitlistEntry struct {
	ClientID    string
	Service     string
	PreferredAt string
	StudioID    string
}

// AddToWaitlist queues a client for a service.
func (s *Store) AddToWaitlist(ctx context.Context, in NewWaitlistEntry) (string, error) {
	entry := &models.WaitlistEntry{
		ID:          uuid.NewString(),
		StudioID:    in.StudioID,
		ClientID:    in.ClientID,
		Service:     in.Service,
		PreferredAt: in.PreferredAt,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to add to waitlist: %w", err)
	}
	return entry.ID, nil
}

// FindWaitlistForService returns un-notified entries for a service, first
// come first served. An empty studioID spans every studio.
func (s *Store) FindWaitlistForService(ctx context.Context, service, studioID string) ([]models.WaitlistEntry, error) {
	entries := []models.WaitlistEntry{}

	q := s.db.NewSelect().
		Model(&entries).
		Relation("Client").
		Where("w.service = ?", service).
		Where("w.notified = ?", false).
		OrderExpr("w.created_at ASC, w.rowid ASC")
	if studioID != "" {
		q = q.Where("w.studio_id = ?", studioID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to find waitlist: %w", err)
	}

	out := entries[:0]
	for _, e := range entries {
		if e.Client != nil && e.Client.ID != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkWaitlistNotified flips notified to true. It never flips back.
func (s *Store) MarkWaitlistNotified(ctx context.Context, entryID string) error {
	_, err := s.db.NewUpdate().
		Model((*models.WaitlistEntry)(nil)).
		Set("notified = ?", true).
		Where("id = ?", entryID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark waitlist notified: %w", err)
	}
	return nil
}
