package jobs

import (
	"context"
	"time"

	"github.com/jordanlanch/beautyos/pkg/backup"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/socialhunter"
	"github.com/robfig/cron/v3"
)

const (
	JobUpsellSweep  = "upsell_sweep"
	JobSocialHunter = "social_hunter"
	JobTokenCleanup = "magic_token_cleanup"
	JobBackup       = "database_backup"
)

// UpsellSweeper sends due upsell offers for every studio.
type UpsellSweeper interface {
	SweepAll(ctx context.Context) (int, error)
}

// SocialScanner scans social sources for every studio.
type SocialScanner interface {
	RunAllStudios(ctx context.Context) ([]socialhunter.StudioRun, error)
}

// TokenCleaner purges spent login tokens.
type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// BackupRunner snapshots the database.
type BackupRunner interface {
	CreateBackup(ctx context.Context) (*backup.Result, error)
}

// Recorder counts job outcomes.
type Recorder interface {
	RecordJobRun(job string, err error)
}

// Jobs are the workloads run on a schedule. Nil entries are not scheduled.
type Jobs struct {
	Upsell  UpsellSweeper
	Social  SocialScanner
	Cleanup TokenCleaner
	Backup  BackupRunner
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	jobs     Jobs
	recorder Recorder
	logger   logger.Logger
}

// NewCronManager creates a new cron manager. recorder may be nil.
func NewCronManager(jobs Jobs, recorder Recorder, log logger.Logger) *CronManager {
	return &CronManager{
		cron:     cron.New(),
		jobs:     jobs,
		recorder: recorder,
		logger:   log.With("component", "scheduler"),
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	if cm.jobs.Upsell != nil {
		if _, err := cm.cron.AddFunc("@every 1h", cm.RunUpsellSweep); err != nil {
			return err
		}
	}
	if cm.jobs.Social != nil {
		if _, err := cm.cron.AddFunc("@every 2h", cm.RunSocialHunter); err != nil {
			return err
		}
	}
	if cm.jobs.Cleanup != nil {
		if _, err := cm.cron.AddFunc("@daily", cm.RunTokenCleanup); err != nil {
			return err
		}
	}
	if cm.jobs.Backup != nil {
		if _, err := cm.cron.AddFunc("0 3 * * *", cm.RunBackup); err != nil {
			return err
		}
	}

	cm.logger.Info("cron jobs configured", "count", len(cm.cron.Entries()))
	return nil
}

// RunUpsellSweep sends offers for appointments entering the upsell window.
func (cm *CronManager) RunUpsellSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sent, err := cm.jobs.Upsell.SweepAll(ctx)
	cm.finish(JobUpsellSweep, err, "sent", sent)
}

// RunSocialHunter scans Reddit and Google Maps for every onboarded studio.
func (cm *CronManager) RunSocialHunter() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	runs, err := cm.jobs.Social.RunAllStudios(ctx)
	failed := 0
	for _, r := range runs {
		if r.Error != "" {
			failed++
		}
	}
	cm.finish(JobSocialHunter, err, "scans", len(runs), "failed", failed)
}

// RunTokenCleanup deletes used and expired magic tokens.
func (cm *CronManager) RunTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := cm.jobs.Cleanup.CleanupExpired(ctx)
	cm.finish(JobTokenCleanup, err, "deleted", deleted)
}

// RunBackup writes the nightly database snapshot.
func (cm *CronManager) RunBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	result, err := cm.jobs.Backup.CreateBackup(ctx)
	if result == nil {
		cm.finish(JobBackup, err)
		return
	}
	cm.finish(JobBackup, err, "file", result.Filename, "uploaded", result.UploadedToS3)
}

func (cm *CronManager) finish(job string, err error, args ...any) {
	if cm.recorder != nil {
		cm.recorder.RecordJobRun(job, err)
	}
	if err != nil {
		cm.logger.Error("scheduled job failed", "job", job, "error", err)
		return
	}
	cm.logger.Info("scheduled job completed", append([]any{"job", job}, args...)...)
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (cm *CronManager) Stop(ctx context.Context) {
	cm.logger.Info("stopping cron scheduler")
	select {
	case <-cm.cron.Stop().Done():
	case <-ctx.Done():
	}
}
