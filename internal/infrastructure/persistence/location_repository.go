package persistence

import (
	"context"
	"errors"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLocationRepository implements project.LocationRepository
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByProject returns the locations of a project in insertion order
func (r *GormLocationRepository) FindByProject(ctx context.Context, projectID uint) ([]project.Location, error) {
	var ms []models.LocationModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]project.Location, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

// FindByName finds a location of the project by exact name
func (r *GormLocationRepository) FindByName(ctx context.Context, projectID uint, name string) (*project.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).Where("project_id = ? AND name = ?", projectID, name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	loc := m.ToDomain()
	return &loc, nil
}

// Create inserts loc and sets its ID
func (r *GormLocationRepository) Create(ctx context.Context, loc *project.Location) error {
	m := models.LocationModel{ProjectID: loc.ProjectID, Name: loc.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	loc.ID = m.ID
	return nil
}

// GormWallRepository implements project.WallRepository
type GormWallRepository struct {
	db *gorm.DB
}

// NewGormWallRepository creates a new GormWallRepository
func NewGormWallRepository(db *gorm.DB) *GormWallRepository {
	return &GormWallRepository{db: db}
}

// FindByProject returns the walls of a project
func (r *GormWallRepository) FindByProject(ctx context.Context, projectID uint) ([]project.Wall, error) {
	var ms []models.WallModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]project.Wall, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

var (
	_ project.LocationRepository = (*GormLocationRepository)(nil)
	_ project.WallRepository     = (*GormWallRepository)(nil)
)
