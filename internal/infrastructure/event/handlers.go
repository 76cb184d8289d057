package event

import (
	"context"
	"sync"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler logs every event it receives
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle implements shared.EventHandler
func (h *LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID()),
	}
	if opened, ok := event.(*project.ProjectOpenedEvent); ok {
		fields = append(fields,
			zap.Bool("enriched", opened.Enriched()),
			zap.Int("warnings", len(opened.Warnings)))
	}
	h.logger.Info("Domain event", fields...)
	return nil
}

// EventTypes implements shared.EventHandler; an empty list receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

// OpenedProject is one entry of the recently opened list
type OpenedProject struct {
	ProjectID uint      `json:"project_id"`
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	Enriched  bool      `json:"enriched"`
	OpenedAt  time.Time `json:"opened_at"`
}

// RecentProjects keeps the most recently opened projects, newest first.
// Reopening a project moves it to the front.
type RecentProjects struct {
	mu    sync.RWMutex
	limit int
	items []OpenedProject
}

// NewRecentProjects creates a tracker holding at most limit entries
func NewRecentProjects(limit int) *RecentProjects {
	if limit <= 0 {
		limit = 10
	}
	return &RecentProjects{limit: limit}
}

// Handle implements shared.EventHandler
func (r *RecentProjects) Handle(ctx context.Context, event shared.DomainEvent) error {
	opened, ok := event.(*project.ProjectOpenedEvent)
	if !ok {
		return nil
	}
	entry := OpenedProject{
		ProjectID: opened.Project.ID,
		Number:    opened.Project.Number,
		Name:      opened.Project.Name,
		Enriched:  opened.Enriched(),
		OpenedAt:  opened.OccurredAt(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]OpenedProject, 0, r.limit)
	items = append(items, entry)
	for _, it := range r.items {
		if it.ProjectID == entry.ProjectID && it.Number == entry.Number {
			continue
		}
		if len(items) == r.limit {
			break
		}
		items = append(items, it)
	}
	r.items = items
	return nil
}

// EventTypes implements shared.EventHandler
func (r *RecentProjects) EventTypes() []string {
	return []string{project.EventTypeProjectOpened}
}

// List returns a copy of the tracked entries
func (r *RecentProjects) List() []OpenedProject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]OpenedProject{}, r.items...)
}
