package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/phone"
)

// Special SIDs returned when no provider message was created.
const (
	SIDNoPhone = "no_phone"
	SIDDryRun  = "dry_run"
)

// SMSProvider defines the interface for SMS delivery providers (Twilio, etc.)
type SMSProvider interface {
	Name() string
	SendSMS(ctx context.Context, to, from, body string) (*SMSResult, error)
}

// SMSResult holds the result of sending an SMS
type SMSResult struct {
	SID         string
	Status      string
	DateCreated time.Time
}

// Texter sends a text message and returns the provider SID. *Sender
// implements it.
type Texter interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Observer is told about every message handed to a provider.
type Observer interface {
	SMSSent(provider string)
}

// Sender delivers text messages through a provider.
type Sender struct {
	provider   SMSProvider
	fromNumber string
	region     string
	observer   Observer
	logger     logger.Logger
}

// NewSender creates a new SMS sender
func NewSender(provider SMSProvider, fromNumber string, log logger.Logger) *Sender {
	return &Sender{
		provider:   provider,
		fromNumber: fromNumber,
		region:     phone.DefaultRegion,
		logger:     log.With("component", "sms", "provider", provider.Name()),
	}
}

// WithObserver attaches o to the sender.
func (s *Sender) WithObserver(o Observer) *Sender {
	s.observer = o
	return s
}

// Send texts body to the given number and returns the provider message SID.
// An empty number returns SIDNoPhone without calling the provider.
func (s *Sender) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return SIDNoPhone, nil
	}

	normalized, err := phone.Normalize(to, s.region)
	if err != nil {
		return "", fmt.Errorf("failed to send sms: %w", err)
	}

	result, err := s.provider.SendSMS(ctx, normalized, s.fromNumber, body)
	if err != nil {
		s.logger.Error("sms send failed", "to", phone.Mask(normalized), "error", err)
		return "", fmt.Errorf("failed to send sms: %w", err)
	}

	if s.observer != nil {
		s.observer.SMSSent(s.provider.Name())
	}
	s.logger.Info("sms sent", "to", phone.Mask(normalized), "sid", result.SID)
	return result.SID, nil
}

// ConsoleProvider logs messages instead of sending them.
type ConsoleProvider struct {
	logger logger.Logger
}

// NewConsoleProvider creates a dry-run provider.
func NewConsoleProvider(log logger.Logger) *ConsoleProvider {
	return &ConsoleProvider{logger: log.With("component", "sms_dry_run")}
}

// Name implements SMSProvider.
func (p *ConsoleProvider) Name() string { return "console" }

// SendSMS implements SMSProvider.
func (p *ConsoleProvider) SendSMS(ctx context.Context, to, from, body string) (*SMSResult, error) {
	p.logger.Info("dry run sms", "to", to, "from", from, "body", body)
	return &SMSResult{SID: SIDDryRun, Status: "dry_run", DateCreated: time.Now().UTC()}, nil
}
