package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appactivity "github.com/salescrm/backend/internal/application/activity"
	appbackup "github.com/salescrm/backend/internal/application/backup"
	appcomm "github.com/salescrm/backend/internal/application/communication"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
)

type recordingExecutor struct {
	mu       sync.Mutex
	jobs     []*Job
	failures int
	done     chan struct{}
}

func (r *recordingExecutor) Execute(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	if r.failures > 0 {
		r.failures--
		return errors.New("boom")
	}
	close(r.done)
	return nil
}

func TestTasksFromConfig(t *testing.T) {
	tasks := TasksFromConfig(config.SchedulerConfig{
		QuotaCheckEnabled:  true,
		QuotaCheckHour:     1,
		BackupEnabled:      true,
		BackupHour:         3,
		BackupMinute:       30,
		ActivityCleanup:    true,
		ActivityCleanupDay: 1,
	})
	require.Len(t, tasks, 3)
	assert.Equal(t, Task{Type: JobTypeQuotaCheck, Hour: 1, Offset: -1}, tasks[0])
	assert.Equal(t, Task{Type: JobTypeScheduledBackup, Hour: 3, Minute: 30}, tasks[1])
	assert.Equal(t, 1, tasks[2].DayOfMonth)

	assert.Empty(t, TasksFromConfig(config.SchedulerConfig{}))
}

func TestTask_Due(t *testing.T) {
	task := Task{Type: JobTypeActivityCleanup, Hour: 3, Minute: 30, DayOfMonth: 1}
	assert.True(t, task.due(time.Date(2025, 5, 1, 3, 30, 10, 0, time.UTC)))
	assert.False(t, task.due(time.Date(2025, 5, 2, 3, 30, 0, 0, time.UTC)))
	assert.False(t, task.due(time.Date(2025, 5, 1, 3, 31, 0, 0, time.UTC)))

	daily := Task{Type: JobTypeQuotaCheck, Hour: 1}
	assert.True(t, daily.due(time.Date(2025, 5, 17, 1, 0, 0, 0, time.UTC)))
}

func TestCronTrigger_SubmitsOncePerDay(t *testing.T) {
	exec := &recordingExecutor{done: make(chan struct{})}
	s := NewScheduler(DefaultConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	trigger := NewCronTrigger([]Task{{Type: JobTypeQuotaCheck, Hour: 1, Offset: -1}}, time.Minute, time.UTC, s, zap.NewNop())
	trigger.now = func() time.Time { return time.Date(2025, 4, 9, 1, 0, 20, 0, time.UTC) }

	trigger.checkAndTrigger()
	trigger.checkAndTrigger()

	select {
	case <-exec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	require.Len(t, exec.jobs, 1)
	assert.Equal(t, JobTypeQuotaCheck, exec.jobs[0].Type)
	assert.Equal(t, time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC), exec.jobs[0].Date)
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := &recordingExecutor{failures: 1, done: make(chan struct{})}
	cfg := DefaultConfig()
	cfg.RetryDelay = 10 * time.Millisecond
	s := NewScheduler(cfg, exec, zap.NewNop())

	assert.ErrorIs(t, s.Submit(NewJob(JobTypeScheduledBackup, time.Now(), 1)), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	assert.ErrorIs(t, s.Submit(NewJob("REPORT", time.Now(), 1)), ErrInvalidJobType)

	job := NewJob(JobTypeScheduledBackup, time.Now(), 1)
	require.NoError(t, s.Submit(job))

	select {
	case <-exec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	assert.Len(t, exec.jobs, 2)
	assert.Equal(t, 1, job.RetryCount)
}

type fakeQuota struct{ date time.Time }

func (f *fakeQuota) CheckQuota(_ context.Context, date time.Time, _ uuid.UUID) (*appcomm.QuotaCheckResult, error) {
	f.date = date
	return &appcomm.QuotaCheckResult{Date: date.Format("2006-01-02")}, nil
}

type fakeBackups struct {
	created backup.Type
	kept    int
}

func (f *fakeBackups) Create(_ context.Context, input appbackup.CreateInput, _ uuid.UUID) (*appbackup.BackupDTO, error) {
	f.created = input.Type
	return &appbackup.BackupDTO{ID: uuid.New()}, nil
}

func (f *fakeBackups) ApplyRetention(_ context.Context, _ backup.Type, keep int) (int, error) {
	f.kept = keep
	return 1, nil
}

type fakeActivity struct{ days int }

func (f *fakeActivity) Cleanup(_ context.Context, days int) (*appactivity.CleanupResult, error) {
	f.days = days
	return &appactivity.CleanupResult{}, nil
}

type fakeSettings map[string]string

func (f fakeSettings) FindByKey(_ context.Context, key string) (*settings.Setting, error) {
	v, ok := f[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &settings.Setting{Key: key, Value: v}, nil
}

func TestMaintenanceExecutor(t *testing.T) {
	quota, backups, activity := &fakeQuota{}, &fakeBackups{}, &fakeActivity{}
	exec := NewMaintenanceExecutor(quota, backups, activity, fakeSettings{settings.KeyActivityRetentionDays: "45"},
		ExecutorOptions{KeepBackups: 7}, zap.NewNop())
	ctx := context.Background()
	day := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)

	require.NoError(t, exec.Execute(ctx, NewJob(JobTypeQuotaCheck, day, 0)))
	assert.Equal(t, day, quota.date)

	require.NoError(t, exec.Execute(ctx, NewJob(JobTypeScheduledBackup, day, 0)))
	assert.Equal(t, backup.TypeScheduled, backups.created)
	assert.Equal(t, 7, backups.kept)

	require.NoError(t, exec.Execute(ctx, NewJob(JobTypeActivityCleanup, day, 0)))
	assert.Equal(t, 45, activity.days)

	assert.ErrorIs(t, exec.Execute(ctx, NewJob("UNKNOWN", day, 0)), ErrInvalidJobType)
}

func TestMaintenanceExecutor_DefaultRetention(t *testing.T) {
	activity := &fakeActivity{}
	exec := NewMaintenanceExecutor(&fakeQuota{}, &fakeBackups{}, activity, fakeSettings{}, ExecutorOptions{}, zap.NewNop())

	require.NoError(t, exec.Execute(context.Background(), NewJob(JobTypeActivityCleanup, time.Now(), 0)))
	assert.Equal(t, settings.DefaultFor(settings.KeyActivityRetentionDays).Int(0), activity.days)
}
