package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormProjectRepository) WithTx(tx *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: tx}
}

// FindByID finds a project by its store-local ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint) (*project.Project, error) {
	var m models.ProjectModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByNumber finds a project by its natural key
func (r *GormProjectRepository) FindByNumber(ctx context.Context, number string) (*project.Project, error) {
	var m models.ProjectModel
	if err := r.db.WithContext(ctx).Where("number = ?", strings.TrimSpace(number)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll returns every project ordered by number
func (r *GormProjectRepository) FindAll(ctx context.Context) ([]project.Project, error) {
	var ms []models.ProjectModel
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	projects := make([]project.Project, 0, len(ms))
	for i := range ms {
		projects = append(projects, *ms[i].ToDomain())
	}
	return projects, nil
}

// UpsertByNumber updates the project with data.Number in place, or inserts a
// new row when none exists. A row whose attributes already match is left
// untouched. The caller-supplied ID is ignored on insert.
func (r *GormProjectRepository) UpsertByNumber(ctx context.Context, data *project.Project) (*project.Project, error) {
	number := strings.TrimSpace(data.Number)
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "project number is required")
	}

	db := r.db.WithContext(ctx)
	var m models.ProjectModel
	err := db.Where("number = ?", number).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fresh := *data
		fresh.ID = 0
		fresh.Number = number
		m = *models.ProjectModelFromDomain(&fresh)
		if err := db.Create(&m).Error; err != nil {
			return nil, err
		}
		return m.ToDomain(), nil
	case err != nil:
		return nil, err
	}

	current := m.ToDomain()
	updated := *current
	updated.Apply(data)
	if updated == *current {
		return current, nil
	}
	m.FromDomain(&updated)
	if err := db.Save(&m).Error; err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts p keeping its ID when set
func (r *GormProjectRepository) Create(ctx context.Context, p *project.Project) error {
	m := models.ProjectModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*p = *m.ToDomain()
	return nil
}

var _ project.ProjectRepository = (*GormProjectRepository)(nil)
