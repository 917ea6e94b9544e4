package event

import (
	"slices"
	"sync"

	"github.com/salescrm/backend/internal/domain/shared"
)

// subscription binds a handler to a set of event types; an empty set
// subscribes to everything
type subscription struct {
	handler shared.EventHandler
	types   map[string]bool
}

func (s subscription) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// HandlerRegistry keeps subscriptions in registration order
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	sub := subscription{handler: handler, types: make(map[string]bool, len(eventTypes))}
	for _, t := range eventTypes {
		sub.types[t] = true
	}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
}

// Unregister drops every subscription of handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// GetHandlers returns the handlers for eventType, type-bound ones before catch-all ones
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var typed, catchAll []shared.EventHandler
	for _, s := range r.subs {
		switch {
		case len(s.types) == 0:
			catchAll = append(catchAll, s.handler)
		case s.wants(eventType):
			typed = append(typed, s.handler)
		}
	}
	return append(typed, catchAll...)
}
