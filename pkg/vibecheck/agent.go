// Package vibecheck screens inbound leads for brand fit and policy
// acceptance before they get calendar access.
package vibecheck

import (
	"context"
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

// VibeVerdict is the schema the model must answer a lead with.
type VibeVerdict struct {
	IsApproved                 *bool    `json:"is_approved" validate:"required"`
	VibeScore                  *float64 `json:"vibe_score" validate:"required,gte=0,lte=1"`
	Reasoning                  string   `json:"reasoning"`
	DraftReply                 string   `json:"draft_reply" validate:"required"`
	RequiresPolicyConfirmation *bool    `json:"requires_policy_confirmation" validate:"required"`
	DetectedIntent             string   `json:"detected_intent" validate:"required,oneof=service_inquiry pricing policy_bypass spam other"`
}

// ConfirmVerdict is the schema for a policy confirmation reply.
type ConfirmVerdict struct {
	Confirmed  *bool  `json:"confirmed" validate:"required"`
	DraftReply string `json:"draft_reply" validate:"required"`
}

// LeadInput is an inbound first message.
type LeadInput struct {
	StudioID    string
	Message     string
	SenderName  string
	SenderIG    string
	SenderPhone string
	DryRun      bool
}

// LeadResult is the screening outcome.
type LeadResult struct {
	ClientID                   string              `json:"client_id,omitempty"`
	IsApproved                 bool                `json:"is_approved"`
	VibeScore                  float64             `json:"vibe_score"`
	Reasoning                  string              `json:"reasoning"`
	DraftReply                 string              `json:"draft_reply,omitempty"`
	RequiresPolicyConfirmation bool                `json:"requires_policy_confirmation"`
	DetectedIntent             string              `json:"detected_intent,omitempty"`
	Status                     models.IntakeStatus `json:"status,omitempty"`
	NotConfigured              bool                `json:"not_configured,omitempty"`
}

// ConfirmInput is a follow-up reply to the policy question.
type ConfirmInput struct {
	ClientID string
	Message  string
	StudioID string
}

// ConfirmResult reports whether the client accepted the policy.
type ConfirmResult struct {
	ClientID      string `json:"client_id"`
	Confirmed     bool   `json:"confirmed"`
	DraftReply    string `json:"draft_reply,omitempty"`
	NotConfigured bool   `json:"not_configured,omitempty"`
}

// Agent runs the vibe check.
type Agent struct {
	tenants   *tenant.Store
	lifecycle *lifecycle.Store
	audit     *audit.Service
	llm       llm.LLMClient
	logger    logger.Logger
}

// NewAgent creates a vibe check agent.
func NewAgent(tenants *tenant.Store, lc *lifecycle.Store, auditSvc *audit.Service, client llm.LLMClient, log logger.Logger) *Agent {
	return &Agent{
		tenants:   tenants,
		lifecycle: lc,
		audit:     auditSvc,
		llm:       client,
		logger:    log.With("component", "vibe_check"),
	}
}

// EvaluateLead scores a first message and, unless DryRun, records the client.
func (a *Agent) EvaluateLead(ctx context.Context, in LeadInput) (*LeadResult, error) {
	cfg, err := a.tenants.ResolveConfig(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &LeadResult{Reasoning: "Studio not configured", NotConfigured: true}, nil
	}

	verdict, err := llm.CallStructured[VibeVerdict](ctx, a.llm, leadPrompt(cfg), leadMessage(in))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate lead: %w", err)
	}

	result := &LeadResult{
		IsApproved:                 *verdict.IsApproved,
		VibeScore:                  *verdict.VibeScore,
		Reasoning:                  verdict.Reasoning,
		DraftReply:                 verdict.DraftReply,
		RequiresPolicyConfirmation: *verdict.RequiresPolicyConfirmation,
		DetectedIntent:             verdict.DetectedIntent,
		Status:                     intakeStatus(verdict),
	}

	if in.DryRun {
		return result, nil
	}

	name := in.SenderName
	if name == "" {
		name = "Unknown"
	}
	clientID, err := a.lifecycle.CreateClient(ctx, lifecycle.NewClient{
		Name:            name,
		Phone:           in.SenderPhone,
		InstagramHandle: in.SenderIG,
		StudioID:        in.StudioID,
	})
	if err != nil {
		return nil, err
	}
	result.ClientID = clientID

	if err := a.lifecycle.UpdateClientIntake(ctx, clientID, result.Status, result.VibeScore, result.Reasoning); err != nil {
		return nil, err
	}

	err = a.audit.Log(ctx, audit.Event{
		StudioID: in.StudioID,
		Agent:    models.AgentVibeCheck,
		Action:   "lead_evaluated",
		Metadata: map[string]any{
			"client_id":       clientID,
			"is_approved":     result.IsApproved,
			"vibe_score":      result.VibeScore,
			"detected_intent": result.DetectedIntent,
			"status":          string(result.Status),
		},
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("lead evaluated", "studio_id", in.StudioID, "client_id", clientID, "status", result.Status)
	return result, nil
}

// EvaluatePolicyConfirmation checks whether a pending client's reply accepts
// the deposit policy and approves them if so.
func (a *Agent) EvaluatePolicyConfirmation(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	client, err := a.lifecycle.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || domain.HiddenFrom(client.StudioID, in.StudioID) {
		return nil, domain.NewNotFoundError("client")
	}
	if client.IntakeStatus != models.IntakePending {
		return nil, lifecycle.RejectTransition(client.IntakeStatus, models.IntakeApproved)
	}

	studioID := in.StudioID
	if studioID == "" {
		studioID = client.StudioID
	}
	cfg, err := a.tenants.ResolveConfig(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &ConfirmResult{ClientID: in.ClientID, NotConfigured: true}, nil
	}

	verdict, err := llm.CallStructured[ConfirmVerdict](ctx, a.llm, confirmationPrompt(cfg), "Client reply:\n\n"+in.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate confirmation: %w", err)
	}

	result := &ConfirmResult{
		ClientID:   in.ClientID,
		Confirmed:  *verdict.Confirmed,
		DraftReply: verdict.DraftReply,
	}

	action := "policy_not_confirmed"
	if result.Confirmed {
		action = "policy_confirmed"
		if err := a.lifecycle.UpdateClientIntake(ctx, in.ClientID, models.IntakeApproved, 1.0, "Policy confirmed by client."); err != nil {
			return nil, err
		}
	}

	err = a.audit.Log(ctx, audit.Event{
		StudioID: studioID,
		Agent:    models.AgentVibeCheck,
		Action:   action,
		Metadata: map[string]any{"client_id": in.ClientID},
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func intakeStatus(v *VibeVerdict) models.IntakeStatus {
	switch {
	case !*v.IsApproved:
		return models.IntakeDeclined
	case !*v.RequiresPolicyConfirmation:
		return models.IntakeApproved
	default:
		return models.IntakePending
	}
}
