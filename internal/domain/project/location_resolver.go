package project

import (
	"context"
	"errors"
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
)

// LocationResolver maps location names to IDs within one project, creating
// locations that do not exist yet. Lookups are cached for its lifetime.
type LocationResolver struct {
	repo      LocationRepository
	projectID uint
	cache     map[string]uint
}

// NewLocationResolver creates a resolver for projectID
func NewLocationResolver(repo LocationRepository, projectID uint) *LocationResolver {
	return &LocationResolver{repo: repo, projectID: projectID, cache: map[string]uint{}}
}

// Resolve returns the ID of the named location, or nil for a blank name
func (r *LocationResolver) Resolve(ctx context.Context, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if id, ok := r.cache[name]; ok {
		return &id, nil
	}

	loc, err := r.repo.FindByName(ctx, r.projectID, name)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		loc = &Location{ProjectID: r.projectID, Name: name}
		if err := r.repo.Create(ctx, loc); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	r.cache[name] = loc.ID
	id := loc.ID
	return &id, nil
}
