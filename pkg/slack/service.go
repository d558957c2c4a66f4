package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jordanlanch/beautyos/pkg/models"
)

var (
	// ErrSlackSendFailed is returned when Slack API fails
	ErrSlackSendFailed = errors.New("failed to send Slack notification")
)

// Message represents a Slack message
type Message struct {
	Text string `json:"text"`
}

// SlackClient is an interface for sending Slack notifications
type SlackClient interface {
	SendMessage(ctx context.Context, msg Message) error
}

// WebhookClient implements SlackClient using Slack webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new Slack webhook client
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends a message to Slack via webhook
func (c *WebhookClient) SendMessage(ctx context.Context, msg Message) error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrSlackSendFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrSlackSendFailed
	}

	return nil
}

// Service handles Slack notifications
type Service struct {
	client SlackClient
}

// NewService creates a new Slack service
func NewService(client SlackClient) *Service {
	return &Service{
		client: client,
	}
}

// NewFromWebhook returns a disabled service when webhookURL is empty.
func NewFromWebhook(webhookURL string) *Service {
	if webhookURL == "" {
		return NewService(nil)
	}
	return NewService(NewWebhookClient(webhookURL))
}

// IsEnabled returns true if Slack notifications are enabled
func (s *Service) IsEnabled() bool {
	return s != nil && s.client != nil
}

// NotifySocialLead announces a relevant post or review found by the hunter
func (s *Service) NotifySocialLead(ctx context.Context, studioName string, lead *models.SocialLead) error {
	if !s.IsEnabled() {
		return nil // Silently skip if not enabled
	}

	source := "r/" + lead.Subreddit
	if lead.Platform == models.PlatformGoogleMaps {
		source = lead.Subreddit + " (Google Maps)"
	}

	text := fmt.Sprintf("🎯 *New Social Lead* for %s\n"+
		"• Source: %s\n"+
		"• Post: %s\n"+
		"• Match: %.0f%%\n"+
		"• Link: %s",
		studioName, source, lead.PostTitle, lead.MatchScore*100, lead.PostURL)

	return s.client.SendMessage(ctx, Message{Text: text})
}

// NotifyNewStudio sends a notification when a studio signs up
func (s *Service) NotifyNewStudio(ctx context.Context, name, email string) error {
	if !s.IsEnabled() {
		return nil
	}

	text := fmt.Sprintf("👤 *New Studio Signup*\n"+
		"• Name: %s\n"+
		"• Email: %s",
		name, email)

	return s.client.SendMessage(ctx, Message{Text: text})
}

// NotifyExportComplete sends a notification when a lead export is complete
func (s *Service) NotifyExportComplete(ctx context.Context, studioName, format string, leadCount int) error {
	if !s.IsEnabled() {
		return nil
	}

	text := fmt.Sprintf("📊 *Export Complete*\n"+
		"• Studio: %s\n"+
		"• Format: %s\n"+
		"• Leads: %d",
		studioName, format, leadCount)

	return s.client.SendMessage(ctx, Message{Text: text})
}
