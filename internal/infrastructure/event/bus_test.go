package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), "test"),
	}
}

type testHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.types }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_PublishToTypedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &testHandler{types: []string{"SaleCreated"}}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("SaleCreated"), newTestEvent("SaleDeleted")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &testHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Equal(t, 2, h.count())
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &testHandler{types: []string{"X"}, err: errors.New("fail")}
	panicking := &testHandler{types: []string{"X"}, panics: true}
	ok := &testHandler{types: []string{"X"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	err := bus.Publish(context.Background(), newTestEvent("X"))
	require.NoError(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, ok.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &testHandler{types: []string{"X"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
	assert.Equal(t, 0, h.count())
	assert.Empty(t, bus.registry.GetHandlers("X"))
}

func TestHandlerFunc(t *testing.T) {
	var got string
	h := &HandlerFunc{Types: []string{"Y"}, Fn: func(ctx context.Context, e shared.DomainEvent) error {
		got = e.EventType()
		return nil
	}}
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Y")))
	assert.Equal(t, "Y", got)
	assert.Equal(t, []string{"Y"}, h.EventTypes())
}
