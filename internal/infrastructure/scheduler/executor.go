package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appactivity "github.com/salescrm/backend/internal/application/activity"
	appbackup "github.com/salescrm/backend/internal/application/backup"
	appcomm "github.com/salescrm/backend/internal/application/communication"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
)

// QuotaChecker penalizes missed communication quotas
type QuotaChecker interface {
	CheckQuota(ctx context.Context, date time.Time, by uuid.UUID) (*appcomm.QuotaCheckResult, error)
}

// BackupRunner takes snapshots and prunes old ones
type BackupRunner interface {
	Create(ctx context.Context, input appbackup.CreateInput, by uuid.UUID) (*appbackup.BackupDTO, error)
	ApplyRetention(ctx context.Context, backupType backup.Type, keep int) (int, error)
}

// ActivityCleaner deletes old activity log entries
type ActivityCleaner interface {
	Cleanup(ctx context.Context, olderThanDays int) (*appactivity.CleanupResult, error)
}

// SettingReader reads runtime settings
type SettingReader interface {
	FindByKey(ctx context.Context, key string) (*settings.Setting, error)
}

// ExecutorOptions tunes the maintenance jobs
type ExecutorOptions struct {
	// KeepBackups is how many scheduled backups survive retention, 0 keeps all
	KeepBackups int
	// Actor is recorded as the creator of penalties and backups
	Actor uuid.UUID
}

// MaintenanceExecutor runs the daily maintenance jobs
type MaintenanceExecutor struct {
	quota    QuotaChecker
	backups  BackupRunner
	activity ActivityCleaner
	settings SettingReader
	opts     ExecutorOptions
	logger   *zap.Logger
}

// NewMaintenanceExecutor creates a new MaintenanceExecutor
func NewMaintenanceExecutor(
	quota QuotaChecker,
	backups BackupRunner,
	activity ActivityCleaner,
	settingReader SettingReader,
	opts ExecutorOptions,
	logger *zap.Logger,
) *MaintenanceExecutor {
	return &MaintenanceExecutor{
		quota:    quota,
		backups:  backups,
		activity: activity,
		settings: settingReader,
		opts:     opts,
		logger:   logger,
	}
}

// Execute runs job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeQuotaCheck:
		return e.checkQuota(ctx, job.Date)
	case JobTypeScheduledBackup:
		return e.backup(ctx, job.Date)
	case JobTypeActivityCleanup:
		return e.cleanupActivity(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobType, job.Type)
	}
}

func (e *MaintenanceExecutor) checkQuota(ctx context.Context, date time.Time) error {
	result, err := e.quota.CheckQuota(ctx, date, e.opts.Actor)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	if result.Skipped {
		e.logger.Info("Quota check skipped", zap.String("date", result.Date), zap.String("reason", result.SkipReason))
	}
	return nil
}

func (e *MaintenanceExecutor) backup(ctx context.Context, date time.Time) error {
	created, err := e.backups.Create(ctx, appbackup.CreateInput{
		Name: "Otomatik yedek " + date.Format("02.01.2006"),
		Type: backup.TypeScheduled,
	}, e.opts.Actor)
	if err != nil {
		return fmt.Errorf("scheduled backup: %w", err)
	}
	e.logger.Info("Scheduled backup created", zap.String("backup_id", created.ID.String()), zap.Int64("size", created.SizeBytes))

	if e.opts.KeepBackups <= 0 {
		return nil
	}
	removed, err := e.backups.ApplyRetention(ctx, backup.TypeScheduled, e.opts.KeepBackups)
	if err != nil {
		return fmt.Errorf("backup retention: %w", err)
	}
	if removed > 0 {
		e.logger.Info("Old scheduled backups removed", zap.Int("removed", removed), zap.Int("kept", e.opts.KeepBackups))
	}
	return nil
}

func (e *MaintenanceExecutor) cleanupActivity(ctx context.Context) error {
	days := e.retentionDays(ctx)
	if _, err := e.activity.Cleanup(ctx, days); err != nil {
		return fmt.Errorf("activity cleanup: %w", err)
	}
	return nil
}

// retentionDays reads activity.retention_days, falling back to its default
func (e *MaintenanceExecutor) retentionDays(ctx context.Context) int {
	setting, err := e.settings.FindByKey(ctx, settings.KeyActivityRetentionDays)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			e.logger.Warn("Failed to read activity retention", zap.Error(err))
		}
		setting = settings.DefaultFor(settings.KeyActivityRetentionDays)
	}
	if setting == nil {
		return 90
	}
	return setting.Int(90)
}
