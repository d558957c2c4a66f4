package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/beautyos/config"
	"github.com/jordanlanch/beautyos/pkg/ai/llm"
	apierrors "github.com/jordanlanch/beautyos/pkg/api/errors"
	"github.com/jordanlanch/beautyos/pkg/api/handlers"
	"github.com/jordanlanch/beautyos/pkg/audit"
	"github.com/jordanlanch/beautyos/pkg/backup"
	"github.com/jordanlanch/beautyos/pkg/cache"
	"github.com/jordanlanch/beautyos/pkg/database"
	"github.com/jordanlanch/beautyos/pkg/email"
	"github.com/jordanlanch/beautyos/pkg/gapfill"
	"github.com/jordanlanch/beautyos/pkg/googlemaps"
	"github.com/jordanlanch/beautyos/pkg/idempotency"
	"github.com/jordanlanch/beautyos/pkg/jobs"
	"github.com/jordanlanch/beautyos/pkg/lifecycle"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/magiclink"
	"github.com/jordanlanch/beautyos/pkg/metrics"
	custommiddleware "github.com/jordanlanch/beautyos/pkg/middleware"
	"github.com/jordanlanch/beautyos/pkg/reddit"
	"github.com/jordanlanch/beautyos/pkg/revenue"
	"github.com/jordanlanch/beautyos/pkg/secrets"
	"github.com/jordanlanch/beautyos/pkg/slack"
	"github.com/jordanlanch/beautyos/pkg/sms"
	"github.com/jordanlanch/beautyos/pkg/socialhunter"
	"github.com/jordanlanch/beautyos/pkg/socialleads"
	"github.com/jordanlanch/beautyos/pkg/tenant"
	"github.com/jordanlanch/beautyos/pkg/testdata"
	"github.com/jordanlanch/beautyos/pkg/vibecheck"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	appLog := logger.New(cfg.LogLevel)
	apierrors.SetLogger(appLog.With("component", "api"))
	appLog.Info("🔧 Configuration loaded", "environment", cfg.APIEnvironment)

	ctx := context.Background()

	// Sensitive settings may live in AWS Secrets Manager
	if cfg.SecretsBackend != secrets.BackendEnv {
		manager, err := secrets.NewManager(secrets.Config{
			Backend:   cfg.SecretsBackend,
			AWSRegion: cfg.AWSRegion,
			Prefix:    cfg.SecretsPrefix,
		})
		if err != nil {
			fatal(appLog, "failed to initialize secrets manager", err)
		}
		loaded, err := secrets.Apply(ctx, manager, cfg)
		if err != nil {
			fatal(appLog, "failed to load secrets", err)
		}
		appLog.Info("🔐 Secrets loaded", "backend", cfg.SecretsBackend, "count", len(loaded))
	}

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.APIEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			appLog.Warn("failed to initialize Sentry", "error", err)
		} else {
			appLog.Info("✅ Sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		appLog.Info("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database (runs migrations)
	db, err := database.NewClient(ctx, cfg.DatabasePath)
	if err != nil {
		fatal(appLog, "failed to open database", err)
	}
	defer db.Close()

	// Stores
	tenants := tenant.NewStore(db.Bun)
	lc := lifecycle.NewStore(db.Bun)
	leads := socialleads.NewStore(db.Bun)
	auditSvc := audit.NewService(db.Bun)

	seedDefaultStudio(ctx, cfg, tenants, lc, leads, appLog)

	// Idempotency keys live in Redis when configured, otherwise in SQLite
	var idem idempotency.Store = idempotency.NewDBStore(db.Bun)
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(cfg.RedisURL, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, using database idempotency store", "error", err)
		} else {
			defer redisClient.Close()
			idem = idempotency.NewRedisStore(redisClient)
			appLog.Info("✅ Redis idempotency store enabled")
		}
	}

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New(prometheus.DefaultRegisterer)

	// External services
	llmClient, err := llm.NewFromConfig(cfg, appLog)
	if err != nil {
		fatal(appLog, "failed to configure LLM", err)
	}

	var smsProvider sms.SMSProvider = sms.NewConsoleProvider(appLog)
	if !cfg.SMSDryRun && cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		smsProvider = sms.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}
	texter := sms.NewSender(smsProvider, cfg.TwilioPhoneNumber, appLog).WithObserver(prometheusMetrics)
	appLog.Info("SMS provider selected", "provider", smsProvider.Name())

	redditClient, err := reddit.NewClient(reddit.Credentials{
		ID:        cfg.RedditClientID,
		Secret:    cfg.RedditClientSecret,
		Username:  cfg.RedditUsername,
		Password:  cfg.RedditPassword,
		UserAgent: cfg.RedditUserAgent,
	}, appLog)
	if err != nil {
		fatal(appLog, "failed to configure Reddit", err)
	}

	mapsClient, err := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GoogleMapsSearchRadius, appLog)
	if err != nil {
		fatal(appLog, "failed to configure Google Maps", err)
	}

	slackService := slack.NewFromWebhook(cfg.SlackWebhookURL)
	if slackService.IsEnabled() {
		appLog.Info("✅ Slack notifications enabled")
	}

	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey, appLog)
	magicLinks := magiclink.NewService(db.Bun, tenants, emailService, appLog)

	// Agents
	vibeAgent := vibecheck.NewAgent(tenants, lc, auditSvc, llmClient, appLog)
	revenueEngine := revenue.NewEngine(revenue.Deps{
		Tenants:       tenants,
		Lifecycle:     lc,
		Offers:        revenue.NewOfferStore(db.Bun),
		Audit:         auditSvc,
		Idempotency:   idem,
		LLM:           llmClient,
		SMS:           texter,
		LeadTimeHours: cfg.UpsellLeadTimeHours,
	}, appLog)
	gapFiller := gapfill.NewAgent(tenants, lc, auditSvc, idem, texter, cfg.StudioName, appLog)
	hunter := socialhunter.NewHunter(socialhunter.Deps{
		Tenants:       tenants,
		Leads:         leads,
		Audit:         auditSvc,
		Idempotency:   idem,
		LLM:           llmClient,
		Reddit:        redditClient,
		Poster:        redditClient,
		Maps:          mapsClient,
		Notifier:      slackService,
		Recorder:      prometheusMetrics,
		BusinessTypes: cfg.GoogleMapsBusinessTypes,
	}, appLog)

	// Nightly database snapshots, shipped to S3 when a bucket is set
	var backupRunner jobs.BackupRunner
	if cfg.BackupEnabled {
		backupCfg := backup.Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			S3Bucket:           cfg.BackupS3Bucket,
			LocalBackupDir:     cfg.BackupDir,
			RetentionDays:      cfg.BackupRetentionDays,
		}
		var store backup.ObjectStore
		if cfg.BackupS3Bucket != "" {
			s3Client, err := backup.NewS3Client(ctx, backupCfg)
			if err != nil {
				fatal(appLog, "failed to configure S3", err)
			}
			store = s3Client
		}
		backupService, err := backup.NewService(db.Bun, store, backupCfg, appLog)
		if err != nil {
			fatal(appLog, "failed to configure backups", err)
		}
		backupRunner = backupService
		appLog.Info("✅ Database backups enabled", "bucket", cfg.BackupS3Bucket, "dir", cfg.BackupDir)
	}

	// Scheduled jobs
	var cronManager *jobs.CronManager
	if cfg.SchedulerEnabled {
		cronManager = jobs.NewCronManager(jobs.Jobs{
			Upsell:  revenueEngine,
			Social:  hunter,
			Cleanup: magicLinks,
			Backup:  backupRunner,
		}, prometheusMetrics, appLog)
		if err := cronManager.SetupJobs(); err != nil {
			fatal(appLog, "failed to schedule jobs", err)
		}
		cronManager.Start()
	} else {
		appLog.Info("ℹ️  Scheduler disabled (SCHEDULER_ENABLED=false)")
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	// Initialize rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)
	signupRateLimiter := custommiddleware.NewRateLimiter(3, 1)

	limiterCtx, stopLimiters := context.WithCancel(ctx)
	defer stopLimiters()
	for _, rl := range []*custommiddleware.RateLimiter{globalRateLimiter, authRateLimiter, signupRateLimiter} {
		go rl.Cleanup(limiterCtx)
	}

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			appLog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.FrontendURL)))
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	studioHandler := handlers.NewStudioHandler(tenants, slackService, appLog)
	authHandler := handlers.NewAuthHandler(magicLinks, cfg.JWTSecret, cfg.JWTExpirationHours, appLog)
	agentHandler := handlers.NewAgentHandler(vibeAgent, revenueEngine, gapFiller, prometheusMetrics)
	bookingHandler := handlers.NewBookingHandler(lc)
	socialHandler := handlers.NewSocialHandler(hunter, leads, tenants, slackService, prometheusMetrics, appLog)
	dashboardHandler := handlers.NewDashboardHandler(auditSvc)

	api := e.Group("/api")

	// Public routes
	api.GET("/health", healthHandler.Check)
	api.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	api.POST("/studios", studioHandler.Signup, signupRateLimiter.RateLimitMiddleware())

	authGroup := api.Group("/auth", authRateLimiter.RateLimitMiddleware())
	{
		authGroup.POST("/magic-link", authHandler.RequestMagicLink)
		authGroup.POST("/verify", authHandler.Verify)
	}

	// Studio routes (X-API-Key or dashboard session)
	protected := api.Group("", custommiddleware.StudioAuth(tenants, cfg.JWTSecret))
	{
		protected.GET("/studio", studioHandler.GetStudio)
		protected.PATCH("/studio", studioHandler.UpdateStudio)

		protected.GET("/services", studioHandler.ListServices)
		protected.POST("/services", studioHandler.CreateService)
		protected.PATCH("/services/:id", studioHandler.UpdateService)
		protected.DELETE("/services/:id", studioHandler.DeleteService)
		protected.POST("/services/:id/addons", studioHandler.CreateAddon)
		protected.PATCH("/addons/:id", studioHandler.UpdateAddon)
		protected.DELETE("/addons/:id", studioHandler.DeleteAddon)

		protected.POST("/vibe-check", agentHandler.VibeCheck)
		protected.POST("/vibe-check/confirm", agentHandler.ConfirmPolicy)
		protected.POST("/upsell/process", agentHandler.ProcessUpsell)
		protected.POST("/upsell/reply", agentHandler.UpsellReply)
		protected.POST("/gap-fill/cancel", agentHandler.GapFillCancel)
		protected.POST("/gap-fill/reply", agentHandler.GapFillReply)

		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.POST("/waitlist", bookingHandler.AddToWaitlist)

		protected.POST("/social/hunt", socialHandler.Hunt)
		protected.POST("/social/hunt/maps", socialHandler.HuntMaps)
		protected.GET("/social/leads", socialHandler.ListLeads)
		protected.GET("/social/leads/export", socialHandler.Export)
		protected.POST("/social/leads/:id/approve", socialHandler.Approve)
		protected.POST("/social/leads/:id/dismiss", socialHandler.Dismiss)

		protected.GET("/dashboard", dashboardHandler.Metrics)
		protected.GET("/events", dashboardHandler.Events)
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	appLog.Info("🚀 Beauty OS API starting",
		"address", address,
		"rate_limit_rpm", cfg.RateLimitRequestsPerMinute,
		"rate_limit_burst", cfg.RateLimitBurst,
		"sms_dry_run", cfg.SMSDryRun,
	)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			fatal(appLog, "failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cronManager != nil {
		cronManager.Stop(shutdownCtx)
		appLog.Info("✅ Cron jobs stopped")
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
	}

	appLog.Info("✅ Server gracefully stopped")
}

// seedDefaultStudio creates the single-tenant studio on an empty database
// and optionally fills it with demo data.
func seedDefaultStudio(ctx context.Context, cfg *config.Config, tenants *tenant.Store, lc *lifecycle.Store, leads *socialleads.Store, log logger.Logger) {
	studio, err := tenants.SeedDefaultStudio(ctx, cfg.StudioName, cfg.DepositAmount, cfg.LateFee)
	if err != nil {
		fatal(log, "failed to seed default studio", err)
	}
	if studio == nil {
		return
	}

	if err := tenants.UpdateStudio(ctx, studio.ID, map[string]any{"booking_url": cfg.BookingURL}); err != nil {
		log.Warn("failed to set booking url", "error", err)
	}
	log.Info("🌱 Default studio created", "studio_id", studio.ID, "slug", studio.Slug)

	if !cfg.SeedDemoData {
		return
	}
	summary, err := testdata.SeedStudio(ctx, tenants, lc, leads, studio.ID, testdata.DefaultDemoConfig())
	if err != nil {
		log.Warn("failed to seed demo data", "error", err)
		return
	}
	log.Info("🌱 Demo data seeded",
		"services", summary.Services,
		"clients", summary.Clients,
		"bookings", summary.Bookings,
		"social_leads", summary.SocialLeads,
	)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
