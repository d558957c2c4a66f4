package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordanlanch/beautyos/pkg/models"
)

// StudioConfig is everything an agent needs to speak for a studio.
type StudioConfig struct {
	Studio     *models.Studio   `json:"studio"`
	Services   []models.Service `json:"services"`
	BrandVoice VoicePreset      `json:"brand_voice"`
}

// ResolveConfig loads a studio with its active services and their add-ons.
// It returns nil, nil when the studio does not exist.
func (s *Store) ResolveConfig(ctx context.Context, studioID string) (*StudioConfig, error) {
	studio, err := s.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if studio == nil {
		return nil, nil
	}

	services, err := s.ListServices(ctx, studioID)
	if err != nil {
		return nil, err
	}
	for i := range services {
		addons, err := s.ListAddonsForService(ctx, services[i].ID)
		if err != nil {
			return nil, err
		}
		services[i].Addons = addons
	}

	return &StudioConfig{
		Studio:     studio,
		Services:   services,
		BrandVoice: Voice(studio.BrandVoice),
	}, nil
}

// ServicesMenu renders the services and add-ons as a bullet list for prompts.
func ServicesMenu(cfg *StudioConfig) string {
	if cfg == nil || len(cfg.Services) == 0 {
		return "No services configured yet."
	}

	var lines []string
	for _, svc := range cfg.Services {
		lines = append(lines, fmt.Sprintf("• %s — $%.0f (%d min)", svc.Name, svc.Price, svc.DurationMin))
		for _, a := range svc.Addons {
			lines = append(lines, fmt.Sprintf("  ↳ Add-on: %s — $%.0f (%d min)", a.Name, a.Price, a.DurationMin))
			if a.Pitch != "" {
				lines = append(lines, fmt.Sprintf("    Pitch: \"%s\"", a.Pitch))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// PoliciesText renders the studio policies as a numbered block.
func PoliciesText(studio *models.Studio) string {
	return fmt.Sprintf(
		"1. A $%.0f non-refundable deposit is required to hold any appointment.\n"+
			"2. Cancellations within %d hours forfeit the deposit.\n"+
			"3. Late arrivals of 15+ minutes are treated as no-shows (deposit forfeited).\n"+
			"4. A $%.0f late fee applies to arrivals between 5-14 minutes late.\n"+
			"5. No exceptions. No sob stories. The policy exists to respect everyone's time.",
		studio.DepositAmount, studio.CancelWindowHours, studio.LateFee,
	)
}
