package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/activity"
	"github.com/salescrm/backend/internal/domain/shared"
)

// EventHandler turns every published domain event into an activity entry
type EventHandler struct {
	recorder activity.Recorder
}

// NewEventHandler creates a handler writing through recorder
func NewEventHandler(recorder activity.Recorder) *EventHandler {
	return &EventHandler{recorder: recorder}
}

// EventTypes subscribes to all events
func (h *EventHandler) EventTypes() []string {
	return nil
}

// Handle records the event
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var entityID *uuid.UUID
	if id := event.AggregateID(); id != uuid.Nil {
		entityID = &id
	}
	entry := activity.NewLog(activity.ActionForEvent(event.EventType()), event.AggregateType(), entityID, event.Summary()).
		WithMetadata("event_type", event.EventType()).
		WithMetadata("event_id", event.EventID().String())
	h.recorder.Record(ctx, entry)
	return nil
}

var _ shared.EventHandler = (*EventHandler)(nil)
