package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/activity"
	"github.com/salescrm/backend/internal/domain/shared"
)

// LogDTO is the API view of an activity entry
type LogDTO struct {
	ID          uuid.UUID      `json:"id"`
	UserID      *uuid.UUID     `json:"user_id,omitempty"`
	Username    string         `json:"username"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    *uuid.UUID     `json:"entity_id,omitempty"`
	Description string         `json:"description"`
	IPAddress   string         `json:"ip_address,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ToLogDTO converts a domain entry
func ToLogDTO(l *activity.Log) LogDTO {
	return LogDTO{
		ID:          l.ID,
		UserID:      l.UserID,
		Username:    l.Username,
		Action:      string(l.Action),
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Description: l.Description,
		IPAddress:   l.IPAddress,
		Metadata:    l.Metadata,
		CreatedAt:   l.CreatedAt,
	}
}

// ListInput filters the activity feed
type ListInput struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// CleanupResult reports a retention cleanup
type CleanupResult struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

// Service reads and maintains the activity feed
type Service struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewService creates a new activity service
func NewService(repo activity.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns a page of activities, newest first
func (s *Service) List(ctx context.Context, input ListInput) (*shared.Paginated[LogDTO], error) {
	filter := activity.Filter{
		UserID:     input.UserID,
		EntityType: input.EntityType,
		DateFrom:   input.DateFrom,
		DateTo:     input.DateTo,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if input.Action != "" {
		action := activity.Action(input.Action)
		filter.Action = &action
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	logs, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]LogDTO, len(logs))
	for i, l := range logs {
		items[i] = ToLogDTO(l)
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &result, nil
}

// Recent returns the newest entries; limit is clamped to 1..100
func (s *Service) Recent(ctx context.Context, limit int) ([]LogDTO, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	logs, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]LogDTO, len(logs))
	for i, l := range logs {
		items[i] = ToLogDTO(l)
	}
	return items, nil
}

// Cleanup deletes entries older than olderThanDays. The horizon cannot be shorter than MinRetentionDays.
func (s *Service) Cleanup(ctx context.Context, olderThanDays int) (*CleanupResult, error) {
	if olderThanDays < activity.MinRetentionDays {
		return nil, shared.NewDomainError("INVALID_RETENTION",
			"Yalnızca 30 günden eski aktiviteler temizlenebilir")
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Activity log cleaned up",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return &CleanupResult{Deleted: deleted, Cutoff: cutoff}, nil
}
