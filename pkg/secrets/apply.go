package secrets

import (
	"context"
	"errors"

	"github.com/jordanlanch/beautyos/config"
)

func sensitiveFields(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"JWT_SECRET":            &cfg.JWTSecret,
		"OPENAI_API_KEY":        &cfg.OpenAIAPIKey,
		"GEMINI_API_KEY":        &cfg.GeminiAPIKey,
		"TWILIO_AUTH_TOKEN":     &cfg.TwilioAuthToken,
		"SENDGRID_API_KEY":      &cfg.SendGridAPIKey,
		"REDDIT_CLIENT_SECRET":  &cfg.RedditClientSecret,
		"REDDIT_PASSWORD":       &cfg.RedditPassword,
		"GOOGLE_MAPS_API_KEY":   &cfg.GoogleMapsAPIKey,
		"SLACK_WEBHOOK_URL":     &cfg.SlackWebhookURL,
		"SENTRY_DSN":            &cfg.SentryDSN,
		"AWS_SECRET_ACCESS_KEY": &cfg.AWSSecretAccessKey,
	}
}

// Apply overwrites the sensitive config fields with values held by m.
// Missing secrets keep whatever the environment provided. It returns the
// keys that were loaded.
func Apply(ctx context.Context, m Manager, cfg *config.Config) ([]string, error) {
	var loaded []string
	for key, field := range sensitiveFields(cfg) {
		value, err := m.GetSecret(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return loaded, err
		}
		*field = value
		loaded = append(loaded, key)
	}
	return loaded, nil
}
