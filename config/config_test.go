package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPSELL_LEAD_TIME_HOURS", "")
	t.Setenv("STUDIO_NAME", "")
	t.Setenv("SEED_DEMO_DATA", "")
	t.Setenv("SECRETS_BACKEND", "")
	t.Setenv("BACKUP_ENABLED", "")
	t.Setenv("BACKUP_RETENTION_DAYS", "")

	cfg := Load()

	assert.Equal(t, 24, cfg.UpsellLeadTimeHours)
	assert.Equal(t, "The Beauty Studio", cfg.StudioName)
	assert.Equal(t, 25.00, cfg.DepositAmount)
	assert.Equal(t, 15.00, cfg.LateFee)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.SeedDemoData)
	assert.Equal(t, "env", cfg.SecretsBackend)
	assert.False(t, cfg.BackupEnabled)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("UPSELL_LEAD_TIME_HOURS", "48")
	t.Setenv("DEPOSIT_AMOUNT", "40.5")
	t.Setenv("SMS_DRY_RUN", "true")
	t.Setenv("GOOGLE_MAPS_BUSINESS_TYPES", "nail_salon, spa ,")
	t.Setenv("API_ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, 48, cfg.UpsellLeadTimeHours)
	assert.Equal(t, 40.5, cfg.DepositAmount)
	assert.True(t, cfg.SMSDryRun)
	assert.Equal(t, []string{"nail_salon", "spa"}, cfg.GoogleMapsBusinessTypes)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_FLOAT", "abc")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.Equal(t, 1.5, getEnvAsFloat("X_FLOAT", 1.5))
	assert.True(t, getEnvAsBool("X_BOOL", true))
}
