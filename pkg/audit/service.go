package audit

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

const defaultRecentLimit = 20

// Service handles the agent event log and dashboard metrics
type Service struct {
	db bun.IDB
}

// NewService creates a new audit service
func NewService(db bun.IDB) *Service {
	return &Service{
		db: db,
	}
}

// Event is one agent action to record.
type Event struct {
	StudioID string
	Agent    string
	Action   string
	Metadata map[string]any
}

// Log appends an agent event.
func (s *Service) Log(ctx context.Context, e Event) error {
	if !validAgent(e.Agent) {
		return domain.NewValidationError(fmt.Sprintf("unknown agent %q", e.Agent))
	}

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	row := &models.AgentEvent{
		ID:        uuid.NewString(),
		StudioID:  e.StudioID,
		Agent:     e.Agent,
		Action:    e.Action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

func validAgent(agent string) bool {
	switch agent {
	case models.AgentVibeCheck, models.AgentRevenue, models.AgentGapFiller,
		models.AgentSocialHunter, models.AgentSystem:
		return true
	}
	return false
}

// Recent returns the newest events first. An empty studioID spans every
// studio.
func (s *Service) Recent(ctx context.Context, studioID string, limit int) ([]models.AgentEvent, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	events := []models.AgentEvent{}
	q := s.db.NewSelect().
		Model(&events).
		OrderExpr("ae.created_at DESC, ae.rowid DESC").
		Limit(limit)
	if studioID != "" {
		q = q.Where("ae.studio_id = ?", studioID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}

// DashboardMetrics aggregates agent results. An empty studioID spans every
// studio.
func (s *Service) DashboardMetrics(ctx context.Context, studioID string) (*models.DashboardMetrics, error) {
	scoped := func(q *bun.SelectQuery, alias string) *bun.SelectQuery {
		if studioID != "" {
			q = q.Where("?.studio_id = ?", bun.Ident(alias), studioID)
		}
		return q
	}

	// SQLite yields an INTEGER 0 for an empty integer-valued sum
	var foundMoney sql.NullFloat64
	err := scoped(s.db.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(b.final_price - b.original_price), 0.0)"), "b").
		Scan(ctx, &foundMoney)
	if err != nil {
		return nil, fmt.Errorf("failed to sum found money: %w", err)
	}

	countEvents := func(agent, action string) (int, error) {
		q := scoped(s.db.NewSelect().Model((*models.AgentEvent)(nil)).Where("ae.agent = ?", agent), "ae")
		if action != "" {
			q = q.Where("ae.action = ?", action)
		}
		return q.Count(ctx)
	}
	countClients := func(status models.IntakeStatus) (int, error) {
		return scoped(s.db.NewSelect().
			Model((*models.Client)(nil)).
			Where("c.intake_status = ?", status), "c").
			Count(ctx)
	}

	m := &models.DashboardMetrics{FoundMoney: round(foundMoney.Float64, 2)}

	if m.AIChats, err = countEvents(models.AgentVibeCheck, ""); err != nil {
		return nil, fmt.Errorf("failed to count ai chats: %w", err)
	}
	if m.LeadsApproved, err = countClients(models.IntakeApproved); err != nil {
		return nil, fmt.Errorf("failed to count approved leads: %w", err)
	}
	if m.LeadsFiltered, err = countClients(models.IntakeDeclined); err != nil {
		return nil, fmt.Errorf("failed to count declined leads: %w", err)
	}
	if m.GapFills, err = countEvents(models.AgentGapFiller, "slot_filled"); err != nil {
		return nil, fmt.Errorf("failed to count gap fills: %w", err)
	}
	if m.SocialLeadsFound, err = countEvents(models.AgentSocialHunter, "lead_found"); err != nil {
		return nil, fmt.Errorf("failed to count social leads: %w", err)
	}

	m.HoursReclaimed = round(float64(m.AIChats)*10/60, 1)
	return m, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
