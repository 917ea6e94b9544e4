// Package activity holds the audit feed of user actions.
package activity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action names the kind of activity
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionImport   Action = "import"
	ActionRollback Action = "rollback"
	ActionMigrate  Action = "migrate"
	ActionBackup   Action = "backup"
	ActionRestore  Action = "restore"
	ActionCancel   Action = "cancel"
	ActionTransfer Action = "transfer"
	ActionPenalty  Action = "penalty"
	ActionOther    Action = "other"
)

// MinRetentionDays is the smallest allowed cleanup horizon
const MinRetentionDays = 30

// Log is one entry of the activity feed
type Log struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	Username    string
	Action      Action
	EntityType  string
	EntityID    *uuid.UUID
	Description string
	IPAddress   string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewLog creates an activity entry
func NewLog(action Action, entityType string, entityID *uuid.UUID, description string) *Log {
	if action == "" {
		action = ActionOther
	}
	return &Log{
		ID:          uuid.New(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}
}

// WithUser attaches the acting user
func (l *Log) WithUser(userID uuid.UUID, username, ip string) *Log {
	if userID != uuid.Nil {
		l.UserID = &userID
	}
	l.Username = username
	l.IPAddress = ip
	return l
}

// WithMetadata sets a metadata key
func (l *Log) WithMetadata(key string, value any) *Log {
	if l.Metadata == nil {
		l.Metadata = make(map[string]any)
	}
	l.Metadata[key] = value
	return l
}

// MetadataJSON renders the metadata for storage
func (l *Log) MetadataJSON() string {
	if len(l.Metadata) == 0 {
		return "{}"
	}
	b, err := json.Marshal(l.Metadata)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ActionForEvent maps a domain event type to an activity action
func ActionForEvent(eventType string) Action {
	switch {
	case strings.HasSuffix(eventType, "Created"), strings.HasSuffix(eventType, "Added"):
		return ActionCreate
	case strings.HasSuffix(eventType, "Deleted"):
		return ActionDelete
	case strings.HasSuffix(eventType, "LoggedIn"):
		return ActionLogin
	case strings.HasSuffix(eventType, "Cancelled"):
		return ActionCancel
	case strings.HasSuffix(eventType, "Transferred"):
		return ActionTransfer
	case strings.Contains(eventType, "Import"):
		return ActionImport
	}
	return ActionUpdate
}

// Filter narrows activity listings
type Filter struct {
	UserID     *uuid.UUID
	Action     *Action
	EntityType string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 50
	}
	if f.PageSize > 200 {
		return 200
	}
	return f.PageSize
}

// Repository persists activity logs
type Repository interface {
	Create(ctx context.Context, log *Log) error
	FindAll(ctx context.Context, filter Filter) ([]*Log, int64, error)
	FindRecent(ctx context.Context, limit int) ([]*Log, error)
	// DeleteOlderThan removes entries created before cutoff and returns the count
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder writes activity entries. Implementations never fail the caller.
type Recorder interface {
	Record(ctx context.Context, entry *Log)
}

// NopRecorder discards entries
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(context.Context, *Log) {}
