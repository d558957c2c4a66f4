package database

import (
	"context"
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

type tableSpec struct {
	model       any
	foreignKeys []string
}

var tables = []tableSpec{
	{model: (*models.Studio)(nil)},
	{model: (*models.Service)(nil), foreignKeys: []string{
		`("studio_id") REFERENCES "studios" ("id")`,
	}},
	{model: (*models.Addon)(nil), foreignKeys: []string{
		`("service_id") REFERENCES "services" ("id")`,
		`("studio_id") REFERENCES "studios" ("id")`,
	}},
	{model: (*models.Client)(nil)},
	{model: (*models.Booking)(nil), foreignKeys: []string{
		`("client_id") REFERENCES "clients" ("id")`,
	}},
	{model: (*models.WaitlistEntry)(nil), foreignKeys: []string{
		`("client_id") REFERENCES "clients" ("id")`,
	}},
	{model: (*models.AgentEvent)(nil)},
	{model: (*models.MagicToken)(nil), foreignKeys: []string{
		`("studio_id") REFERENCES "studios" ("id")`,
	}},
	{model: (*models.SocialLead)(nil), foreignKeys: []string{
		`("studio_id") REFERENCES "studios" ("id")`,
	}},
	{model: (*models.PendingOffer)(nil)},
	{model: (*models.IdempotencyKey)(nil)},
}

type indexSpec struct {
	model   any
	name    string
	columns []string
}

var indexes = []indexSpec{
	{(*models.Service)(nil), "idx_services_studio", []string{"studio_id"}},
	{(*models.Addon)(nil), "idx_addons_service", []string{"service_id"}},
	{(*models.Addon)(nil), "idx_addons_studio", []string{"studio_id"}},
	{(*models.Client)(nil), "idx_clients_studio", []string{"studio_id"}},
	{(*models.Booking)(nil), "idx_bookings_scheduled", []string{"scheduled_at"}},
	{(*models.Booking)(nil), "idx_bookings_status", []string{"status"}},
	{(*models.Booking)(nil), "idx_bookings_studio", []string{"studio_id"}},
	{(*models.WaitlistEntry)(nil), "idx_waitlist_service", []string{"service", "notified"}},
	{(*models.WaitlistEntry)(nil), "idx_waitlist_studio", []string{"studio_id"}},
	{(*models.AgentEvent)(nil), "idx_events_studio", []string{"studio_id"}},
	{(*models.SocialLead)(nil), "idx_social_leads_studio", []string{"studio_id"}},
	{(*models.SocialLead)(nil), "idx_social_leads_status", []string{"studio_id", "status"}},
	{(*models.SocialLead)(nil), "idx_social_leads_post_id", []string{"post_id"}},
}

// Migrate creates every table and index that does not exist yet.
func (c *Client) Migrate(ctx context.Context) error {
	return c.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range tables {
			q := tx.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", t.model, err)
			}
		}

		for _, idx := range indexes {
			_, err := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}
		return nil
	})
}
