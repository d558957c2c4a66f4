package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Database
	DatabasePath string

	// Redis (idempotency keys); empty falls back to the database store
	RedisURL string

	// JWT & Security
	JWTSecret          string
	JWTExpirationHours int

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// Frontend
	FrontendURL string

	// Logging
	LogLevel string

	// Sentry
	SentryDSN string

	// LLM
	LLMProvider   string // openai, gemini, ollama
	LLMModel      string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	LLMBaseURL    string
	LLMMaxTokens  int
	LLMTimeoutSec int

	// Twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	SMSDryRun         bool

	// Email
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// Reddit
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string

	// Google Maps
	GoogleMapsAPIKey        string
	GoogleMapsSearchRadius  int
	GoogleMapsBusinessTypes []string

	// Slack
	SlackWebhookURL string

	// Business defaults
	StudioName          string
	DepositAmount       float64
	LateFee             float64
	UpsellLeadTimeHours int
	BookingURL          string

	// Scheduler
	SchedulerEnabled bool

	// Demo data for the default studio
	SeedDemoData bool

	// Secrets
	SecretsBackend string // env, aws
	SecretsPrefix  string

	// AWS
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Backups
	BackupEnabled       bool
	BackupS3Bucket      string
	BackupDir           string
	BackupRetentionDays int
}

// Load loads configuration from environment variables
func Load() *Config {
	// .env is optional; real environment variables always win
	_ = godotenv.Load()

	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8000"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "./data/beauty_os.db"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret:          getEnv("JWT_SECRET", "change-this-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24*7),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "https://beauty-os.vercel.app"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Sentry
		SentryDSN: getEnv("SENTRY_DSN", ""),

		// LLM
		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		LLMBaseURL:    getEnv("LLM_BASE_URL", ""),
		LLMMaxTokens:  getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTimeoutSec: getEnvAsInt("LLM_TIMEOUT_SECONDS", 30),

		// Twilio
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		SMSDryRun:         getEnvAsBool("SMS_DRY_RUN", false),

		// Email
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "onboarding@beautyos.app"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Beauty OS"),

		// Reddit
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUsername:     getEnv("REDDIT_USERNAME", ""),
		RedditPassword:     getEnv("REDDIT_PASSWORD", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "beauty-os/1.0"),

		// Google Maps
		GoogleMapsAPIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
		GoogleMapsSearchRadius:  getEnvAsInt("GOOGLE_MAPS_SEARCH_RADIUS", 8000),
		GoogleMapsBusinessTypes: getEnvAsList("GOOGLE_MAPS_BUSINESS_TYPES", []string{"beauty_salon", "hair_care", "spa"}),

		// Slack
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		// Business defaults
		StudioName:          getEnv("STUDIO_NAME", "The Beauty Studio"),
		DepositAmount:       getEnvAsFloat("DEPOSIT_AMOUNT", 25.00),
		LateFee:             getEnvAsFloat("LATE_FEE", 15.00),
		UpsellLeadTimeHours: getEnvAsInt("UPSELL_LEAD_TIME_HOURS", 24),
		BookingURL:          getEnv("BOOKING_URL", "https://yourdomain.com/book"),

		// Scheduler
		SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", true),

		// Demo data
		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", false),

		// Secrets
		SecretsBackend: getEnv("SECRETS_BACKEND", "env"),
		SecretsPrefix:  getEnv("SECRETS_PREFIX", "beauty-os/"),

		// AWS
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		// Backups
		BackupEnabled:       getEnvAsBool("BACKUP_ENABLED", false),
		BackupS3Bucket:      getEnv("BACKUP_S3_BUCKET", ""),
		BackupDir:           getEnv("BACKUP_DIR", "./data/backups"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}

// IsProduction reports whether the API runs in production mode
func (c *Config) IsProduction() bool {
	return c.APIEnvironment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
