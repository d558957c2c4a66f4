package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

var (
	studioFields = map[string]bool{
		"name": true, "owner_name": true, "phone": true, "ig_handle": true,
		"brand_voice": true, "deposit_amount": true, "late_fee": true,
		"cancel_window_hours": true, "booking_url": true,
		"onboarding_complete": true, "email": true,
		"location": true, "target_subreddits": true,
	}
	serviceFields = map[string]bool{"name": true, "price": true, "duration_min": true, "active": true}
	addonFields   = map[string]bool{"name": true, "price": true, "duration_min": true, "pitch": true}
)

// Store handles studios, services and add-ons.
type Store struct {
	db bun.IDB
}

// NewStore creates a new tenant store.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// CreateStudioInput holds the signup fields for a new studio.
type CreateStudioInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	OwnerName string `json:"owner_name" validate:"required,max=120"`
	Phone     string `json:"phone"`
	IGHandle  string `json:"ig_handle"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// CreatedStudio is returned once at signup. It is the only time the API key
// is shown.
type CreatedStudio struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	APIKey string `json:"api_key"`
	Name   string `json:"name"`
}

// CreateStudio registers a new studio with a unique slug and API key.
func (s *Store) CreateStudio(ctx context.Context, in CreateStudioInput) (*CreatedStudio, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		existing, err := s.GetStudioByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.NewConflictError("a studio with this email already exists")
		}
	}

	slug, err := s.uniqueSlug(ctx, GenerateSlug(in.Name))
	if err != nil {
		return nil, err
	}
	apiKey, err := randomHex(24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}

	studio := newStudio(in.Name, in.OwnerName, slug, apiKey)
	studio.Phone = in.Phone
	studio.IGHandle = in.IGHandle
	studio.Email = email

	if _, err := s.db.NewInsert().Model(studio).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create studio: %w", err)
	}

	return &CreatedStudio{ID: studio.ID, Slug: slug, APIKey: apiKey, Name: studio.Name}, nil
}

func newStudio(name, owner, slug, apiKey string) *models.Studio {
	return &models.Studio{
		ID:                uuid.NewString(),
		Slug:              slug,
		APIKey:            apiKey,
		Name:              name,
		OwnerName:         owner,
		BrandVoice:        models.BrandVoiceProfessionalChill,
		DepositAmount:     25,
		LateFee:           15,
		CancelWindowHours: 24,
		TargetSubreddits:  []string{},
		CreatedAt:         time.Now().UTC(),
	}
}

func (s *Store) uniqueSlug(ctx context.Context, base string) (string, error) {
	exists, err := s.db.NewSelect().Model((*models.Studio)(nil)).Where("slug = ?", base).Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}
	if !exists {
		return base, nil
	}

	suffix, err := randomHex(3)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}
	return base + "-" + suffix, nil
}

// SeedDefaultStudio creates one onboarded studio when none exist.
func (s *Store) SeedDefaultStudio(ctx context.Context, name string, deposit, lateFee float64) (*models.Studio, error) {
	count, err := s.db.NewSelect().Model((*models.Studio)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count studios: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	apiKey, err := randomHex(24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}
	studio := newStudio(name, "Owner", GenerateSlug(name), apiKey)
	studio.DepositAmount = deposit
	studio.LateFee = lateFee
	studio.OnboardingComplete = true

	if _, err := s.db.NewInsert().Model(studio).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed studio: %w", err)
	}
	return studio, nil
}

func (s *Store) getStudioWhere(ctx context.Context, query string, arg any) (*models.Studio, error) {
	studio := new(models.Studio)
	err := s.db.NewSelect().Model(studio).Where(query, arg).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get studio: %w", err)
	}
	return studio, nil
}

// GetStudio returns the studio or nil when it does not exist.
func (s *Store) GetStudio(ctx context.Context, id string) (*models.Studio, error) {
	return s.getStudioWhere(ctx, "s.id = ?", id)
}

// GetStudioBySlug returns the studio with the given slug or nil.
func (s *Store) GetStudioBySlug(ctx context.Context, slug string) (*models.Studio, error) {
	return s.getStudioWhere(ctx, "s.slug = ?", slug)
}

// GetStudioByAPIKey returns the studio owning apiKey or nil.
func (s *Store) GetStudioByAPIKey(ctx context.Context, apiKey string) (*models.Studio, error) {
	if apiKey == "" {
		return nil, nil
	}
	return s.getStudioWhere(ctx, "s.api_key = ?", apiKey)
}

// GetStudioByEmail returns the studio registered with email or nil.
func (s *Store) GetStudioByEmail(ctx context.Context, email string) (*models.Studio, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return s.getStudioWhere(ctx, "s.email = ?", email)
}

// GetDefaultStudio returns the oldest studio.
func (s *Store) GetDefaultStudio(ctx context.Context) (*models.Studio, error) {
	studio := new(models.Studio)
	err := s.db.NewSelect().Model(studio).OrderExpr("s.created_at ASC, s.rowid ASC").Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default studio: %w", err)
	}
	return studio, nil
}

// ListOnboardedStudios returns every studio that finished onboarding.
func (s *Store) ListOnboardedStudios(ctx context.Context) ([]models.Studio, error) {
	var studios []models.Studio
	err := s.db.NewSelect().
		Model(&studios).
		Where("s.onboarding_complete = ?", true).
		OrderExpr("s.created_at ASC, s.rowid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list studios: %w", err)
	}
	return studios, nil
}

// UpdateStudio applies the allowed keys of fields to the studio. Unknown keys
// are ignored and an empty patch does nothing.
func (s *Store) UpdateStudio(ctx context.Context, studioID string, fields map[string]any) error {
	updates := filterFields(fields, studioFields)
	if len(updates) == 0 {
		return nil
	}

	if v, ok := updates["email"].(string); ok {
		email := strings.ToLower(strings.TrimSpace(v))
		if email != "" {
			existing, err := s.GetStudioByEmail(ctx, email)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != studioID {
				return domain.NewConflictError("a studio with this email already exists")
			}
		}
		updates["email"] = email
	}
	if v, ok := updates["brand_voice"]; ok {
		voice, _ := v.(string)
		if !models.BrandVoice(voice).Valid() {
			return domain.NewValidationError(fmt.Sprintf("unknown brand voice %q", voice))
		}
	}
	if v, ok := updates["target_subreddits"]; ok {
		encoded, err := json.Marshal(v)
		if err != nil {
			return domain.NewValidationError("target_subreddits must be a list of names")
		}
		updates["target_subreddits"] = string(encoded)
	}

	return s.update(ctx, "studios", studioID, updates)
}

// CreateService adds a bookable service to a studio.
func (s *Store) CreateService(ctx context.Context, studioID, name string, price float64, durationMin int) (string, error) {
	svc := &models.Service{
		ID:          uuid.NewString(),
		StudioID:    studioID,
		Name:        name,
		Price:       price,
		DurationMin: durationMin,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(svc).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create service: %w", err)
	}
	return svc.ID, nil
}

// GetService returns the service or nil.
func (s *Store) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	svc := new(models.Service)
	err := s.db.NewSelect().Model(svc).Where("svc.id = ?", serviceID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

// ListServices returns the active services of a studio, oldest first.
func (s *Store) ListServices(ctx context.Context, studioID string) ([]models.Service, error) {
	var services []models.Service
	err := s.db.NewSelect().
		Model(&services).
		Where("svc.studio_id = ?", studioID).
		Where("svc.active = ?", true).
		OrderExpr("svc.created_at ASC, svc.rowid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// UpdateService applies the allowed keys of fields to the service.
func (s *Store) UpdateService(ctx context.Context, serviceID string, fields map[string]any) error {
	updates := filterFields(fields, serviceFields)
	if len(updates) == 0 {
		return nil
	}
	return s.update(ctx, "services", serviceID, updates)
}

// DeleteService deactivates the service. Its add-ons are kept.
func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	return s.update(ctx, "services", serviceID, map[string]any{"active": false})
}

// CreateAddon attaches an add-on to a service.
func (s *Store) CreateAddon(ctx context.Context, serviceID, studioID, name string, price float64, durationMin int, pitch string) (string, error) {
	addon := &models.Addon{
		ID:          uuid.NewString(),
		ServiceID:   serviceID,
		StudioID:    studioID,
		Name:        name,
		Price:       price,
		DurationMin: durationMin,
		Pitch:       pitch,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(addon).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create addon: %w", err)
	}
	return addon.ID, nil
}

// GetAddon returns the add-on or nil.
func (s *Store) GetAddon(ctx context.Context, addonID string) (*models.Addon, error) {
	addon := new(models.Addon)
	err := s.db.NewSelect().Model(addon).Where("a.id = ?", addonID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get addon: %w", err)
	}
	return addon, nil
}

// ListAddonsForService returns a service's add-ons, oldest first.
func (s *Store) ListAddonsForService(ctx context.Context, serviceID string) ([]models.Addon, error) {
	return s.listAddons(ctx, "a.service_id = ?", serviceID)
}

// ListAddonsForStudio returns every add-on of a studio, oldest first.
func (s *Store) ListAddonsForStudio(ctx context.Context, studioID string) ([]models.Addon, error) {
	return s.listAddons(ctx, "a.studio_id = ?", studioID)
}

func (s *Store) listAddons(ctx context.Context, query string, arg any) ([]models.Addon, error) {
	addons := []models.Addon{}
	err := s.db.NewSelect().
		Model(&addons).
		Where(query, arg).
		OrderExpr("a.created_at ASC, a.rowid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addons: %w", err)
	}
	return addons, nil
}

// UpdateAddon applies the allowed keys of fields to the add-on.
func (s *Store) UpdateAddon(ctx context.Context, addonID string, fields map[string]any) error {
	updates := filterFields(fields, addonFields)
	if len(updates) == 0 {
		return nil
	}
	return s.update(ctx, "service_addons", addonID, updates)
}

// DeleteAddon removes the add-on.
func (s *Store) DeleteAddon(ctx context.Context, addonID string) error {
	_, err := s.db.NewDelete().Model((*models.Addon)(nil)).Where("id = ?", addonID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete addon: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, table, id string, values map[string]any) error {
	_, err := s.db.NewUpdate().
		Model(&values).
		TableExpr(table).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

func filterFields(fields map[string]any, allowed map[string]bool) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}
