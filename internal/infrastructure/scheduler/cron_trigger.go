package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/infrastructure/config"
)

// Task is a job fired once a day at Hour:Minute. A positive DayOfMonth
// limits it to that day of the month. Offset shifts the job date from the
// trigger day, the quota check covers the day before.
type Task struct {
	Type       JobType
	Hour       int
	Minute     int
	DayOfMonth int
	Offset     int
}

// due reports whether the task fires at now
func (t Task) due(now time.Time) bool {
	if t.DayOfMonth > 0 && now.Day() != t.DayOfMonth {
		return false
	}
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// TasksFromConfig builds the enabled daily tasks
func TasksFromConfig(cfg config.SchedulerConfig) []Task {
	var tasks []Task
	if cfg.QuotaCheckEnabled {
		tasks = append(tasks, Task{Type: JobTypeQuotaCheck, Hour: cfg.QuotaCheckHour, Minute: cfg.QuotaCheckMinute, Offset: -1})
	}
	if cfg.BackupEnabled {
		tasks = append(tasks, Task{Type: JobTypeScheduledBackup, Hour: cfg.BackupHour, Minute: cfg.BackupMinute})
	}
	if cfg.ActivityCleanup {
		tasks = append(tasks, Task{Type: JobTypeActivityCleanup, Hour: cfg.BackupHour, Minute: cfg.BackupMinute, DayOfMonth: cfg.ActivityCleanupDay})
	}
	return tasks
}

// CronTrigger submits tasks to the scheduler when they are due
type CronTrigger struct {
	tasks         []Task
	checkInterval time.Duration
	location      *time.Location
	scheduler     *Scheduler
	logger        *zap.Logger
	now           func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[JobType]string
}

// NewCronTrigger creates a new cron trigger. Task times are read in location.
func NewCronTrigger(tasks []Task, checkInterval time.Duration, location *time.Location, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	if location == nil {
		location = time.Local
	}
	return &CronTrigger{
		tasks:         tasks,
		checkInterval: checkInterval,
		location:      location,
		scheduler:     scheduler,
		logger:        logger,
		now:           time.Now,
		lastRun:       make(map[JobType]string),
	}
}

// Start starts the check loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	for _, t := range c.tasks {
		c.logger.Info("Scheduled task registered",
			zap.String("job_type", string(t.Type)),
			zap.Int("hour", t.Hour),
			zap.Int("minute", t.Minute),
			zap.Int("day_of_month", t.DayOfMonth),
		)
	}
	return nil
}

// Stop stops the check loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits every due task at most once per day
func (c *CronTrigger) checkAndTrigger() {
	now := c.now().In(c.location)
	today := now.Format("2006-01-02")

	for _, t := range c.tasks {
		if !t.due(now) {
			continue
		}
		c.mu.Lock()
		if c.lastRun[t.Type] == today {
			c.mu.Unlock()
			continue
		}
		c.lastRun[t.Type] = today
		c.mu.Unlock()

		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location).AddDate(0, 0, t.Offset)
		if err := c.Trigger(t.Type, day); err != nil {
			c.logger.Error("Failed to submit scheduled job", zap.String("job_type", string(t.Type)), zap.Error(err))
		}
	}
}

// Trigger submits a job of jobType for day right away
func (c *CronTrigger) Trigger(jobType JobType, day time.Time) error {
	return c.scheduler.Submit(NewJob(jobType, day, c.scheduler.config.RetryAttempts))
}
