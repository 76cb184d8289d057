package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func openedEvent(id uint, number string) *project.ProjectOpenedEvent {
	return project.NewProjectOpenedEvent(project.Project{ID: id, Number: number, Name: "Project " + number}, nil, nil)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler(project.EventTypeProjectOpened)
	bus.Subscribe(handler)

	event := openedEvent(1, "P-1")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)
	other := newTestHandler("Other")
	bus.Subscribe(other)

	require.NoError(t, bus.Publish(context.Background(), openedEvent(1, "P-1"), openedEvent(2, "P-2")))

	assert.Len(t, wildcard.getHandled(), 2)
	assert.Empty(t, other.getHandled())
}

func TestInMemoryEventBus_Publish_FailingHandlers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler(project.EventTypeProjectOpened)
	failing.err = errors.New("handler error")
	panicking := newTestHandler(project.EventTypeProjectOpened)
	panicking.panics = true
	healthy := newTestHandler(project.EventTypeProjectOpened)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), openedEvent(1, "P-1")))

	assert.Len(t, healthy.getHandled(), 1)
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler(project.EventTypeProjectOpened)
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), openedEvent(1, "P-1"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), openedEvent(1, "P-1"))

	assert.Len(t, handler.getHandled(), 1)
}

func TestHandlerRegistry_GetHandlersOrder(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	specific := newTestHandler("A")
	registry.Register(wildcard)
	registry.Register(specific, "A", "B")

	handlers := registry.GetHandlers("A")
	require.Len(t, handlers, 2)
	assert.Same(t, specific, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	registry.Unregister(specific)
	assert.Len(t, registry.GetHandlers("B"), 1)
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewLoggingHandler(zap.New(core))

	require.NoError(t, h.Handle(context.Background(), openedEvent(1, "P-1")))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "P-1", fields["aggregate_id"])
	assert.Equal(t, false, fields["enriched"])
}

func TestRecentProjects(t *testing.T) {
	recent := NewRecentProjects(2)
	ctx := context.Background()

	require.NoError(t, recent.Handle(ctx, openedEvent(1, "P-1")))
	require.NoError(t, recent.Handle(ctx, openedEvent(2, "P-2")))
	require.NoError(t, recent.Handle(ctx, openedEvent(1, "P-1")))

	list := recent.List()
	require.Len(t, list, 2)
	assert.Equal(t, "P-1", list[0].Number)
	assert.Equal(t, "P-2", list[1].Number)

	require.NoError(t, recent.Handle(ctx, openedEvent(3, "P-3")))
	list = recent.List()
	require.Len(t, list, 2)
	assert.Equal(t, "P-3", list[0].Number)
	assert.Equal(t, "P-1", list[1].Number)
}
