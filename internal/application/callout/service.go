// Package callout loads and saves a project's material callouts.
//
// Every input shape is converted to project.GroupedCallouts at the boundary.
// Items without a name or tag are dropped before saving; Uncategorized items
// are never persisted.
package callout

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Gateway is the part of the persistence gateway callouts need
type Gateway interface {
	LoadCallouts(ctx context.Context, projectID uint, opts ...persistence.SessionOption) (project.GroupedCallouts, error)
	ReplaceCallouts(ctx context.Context, projectID uint, grouped project.GroupedCallouts, opts ...persistence.SessionOption) (int, error)
}

// SaveResult reports what a save wrote
type SaveResult struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Service loads and saves callouts
type Service struct {
	gateway  Gateway
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new callout service
func NewService(gateway Gateway, logger *zap.Logger) *Service {
	return &Service{
		gateway:  gateway,
		validate: validator.New(),
		logger:   logger.Named("callout"),
	}
}

// Load returns the callouts of a project; every category key is present
func (s *Service) Load(ctx context.Context, projectID uint) (project.GroupedCallouts, error) {
	grouped, err := s.gateway.LoadCallouts(ctx, projectID)
	if err != nil {
		s.logger.Warn("Failed to load callouts", zap.Uint("project_id", projectID), zap.Error(err))
		return project.NewGroupedCallouts(), err
	}
	return grouped, nil
}

// Save replaces the persisted callouts of a project with grouped
func (s *Service) Save(ctx context.Context, projectID uint, grouped project.GroupedCallouts) error {
	_, err := s.SaveWithResult(ctx, projectID, grouped)
	return err
}

// SaveWithResult is Save reporting written and skipped counts
func (s *Service) SaveWithResult(ctx context.Context, projectID uint, grouped project.GroupedCallouts) (*SaveResult, error) {
	valid, skipped := s.Filter(NormalizeTyped(grouped))
	written, err := s.gateway.ReplaceCallouts(ctx, projectID, valid)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Callouts saved",
		zap.Uint("project_id", projectID),
		zap.Int("written", written),
		zap.Int("skipped", skipped))
	return &SaveResult{Written: written, Skipped: skipped}, nil
}

// SaveRows saves flat rows
func (s *Service) SaveRows(ctx context.Context, projectID uint, rows []Row) (*SaveResult, error) {
	return s.SaveWithResult(ctx, projectID, NormalizeRows(rows))
}

// Filter drops items missing a required field and returns how many were
// dropped. Uncategorized items are kept in the result but never persisted.
func (s *Service) Filter(grouped project.GroupedCallouts) (project.GroupedCallouts, int) {
	out := project.NewGroupedCallouts()
	skipped := 0
	for category, rows := range grouped {
		for _, row := range rows {
			if err := s.validate.Struct(row); err != nil {
				skipped++
				s.logger.Debug("Skipping callout without name or tag",
					zap.String("category", string(category)),
					zap.String("name", row.Name),
					zap.String("tag", row.Tag))
				continue
			}
			out[category] = append(out[category], row)
		}
	}
	return out, skipped
}
