package shared

import (
	"context"

	"github.com/google/uuid"
)

type actorKey struct{}

// Actor identifies the authenticated user behind a request
type Actor struct {
	UserID   uuid.UUID
	Username string
	IP       string
}

// WithActor stores the actor in the context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
