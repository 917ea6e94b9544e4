package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Submit refuses jobs with one of these
var (
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrJobQueueFull        = errors.New("scheduler: queue full")
	ErrInvalidJobType      = errors.New("scheduler: unknown job type")
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType names a maintenance task
type JobType string

const (
	JobTypeQuotaCheck      JobType = "QUOTA_CHECK"
	JobTypeScheduledBackup JobType = "SCHEDULED_BACKUP"
	JobTypeActivityCleanup JobType = "ACTIVITY_CLEANUP"
)

// IsValid checks if the job type is known
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeQuotaCheck, JobTypeScheduledBackup, JobTypeActivityCleanup:
		return true
	}
	return false
}

// Job is one run of a maintenance task. Date is the business day it covers.
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Date        time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(jobType JobType, date time.Time, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Date:       date,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending after delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
}

// JobExecutor runs jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}
