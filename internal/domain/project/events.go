package project

import "github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"

const (
	// AggregateTypeProject is the aggregate type for project events
	AggregateTypeProject = "Project"
	// EventTypeProjectOpened fires once per activation
	EventTypeProjectOpened = "ProjectOpened"
)

// ProjectOpenedEvent carries the best available view of an activated project.
// Detail is nil when the store could not be read and Project is the original.
type ProjectOpenedEvent struct {
	shared.BaseDomainEvent
	Project  Project  `json:"project"`
	Detail   *Detail  `json:"detail,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewProjectOpenedEvent creates a ProjectOpenedEvent
func NewProjectOpenedEvent(p Project, detail *Detail, warnings []string) *ProjectOpenedEvent {
	return &ProjectOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectOpened, AggregateTypeProject, p.Number),
		Project:         p,
		Detail:          detail,
		Warnings:        warnings,
	}
}

// Enriched reports whether the event carries data loaded from the project store
func (e *ProjectOpenedEvent) Enriched() bool {
	return e.Detail != nil
}
