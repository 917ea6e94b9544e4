package activity

import (
	"context"

	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/activity"
	"github.com/salescrm/backend/internal/domain/shared"
)

// Recorder stores activity entries, filling the acting user from the request context.
// Storage failures are logged and never reach the caller.
type Recorder struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewRecorder creates a new recorder
func NewRecorder(repo activity.Repository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record implements activity.Recorder
func (r *Recorder) Record(ctx context.Context, entry *activity.Log) {
	if entry == nil {
		return
	}
	if entry.UserID == nil {
		if actor, ok := shared.ActorFromContext(ctx); ok {
			entry.WithUser(actor.UserID, actor.Username, actor.IP)
		}
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Warn("Failed to record activity",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
	}
}

var _ activity.Recorder = (*Recorder)(nil)
