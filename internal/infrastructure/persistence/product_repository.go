package persistence

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements project.ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByProject returns the products of a project with custom fields and
// location labels, in insertion order
func (r *GormProductRepository) FindByProject(ctx context.Context, projectID uint) ([]project.Product, error) {
	var ms []models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("CustomFields", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]project.Product, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

// Create inserts p with its custom fields and sets the generated IDs
func (r *GormProductRepository) Create(ctx context.Context, p *project.Product) error {
	m := models.ProductModelFromDomain(p)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	p.ID = m.ID
	for i := range m.CustomFields {
		if i < len(p.CustomFields) {
			p.CustomFields[i].ID = m.CustomFields[i].ID
			p.CustomFields[i].ProductID = m.ID
		}
	}
	return nil
}

// DeleteByProject removes every product of the project along with custom
// fields and prompts
func (r *GormProductRepository) DeleteByProject(ctx context.Context, projectID uint) error {
	db := r.db.WithContext(ctx)
	ids := db.Model(&models.ProductModel{}).Select("id").Where("project_id = ?", projectID)

	if err := db.Where("product_id IN (?)", ids).Delete(&models.CustomFieldModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id IN (?)", ids).Delete(&models.PromptModel{}).Error; err != nil {
		return err
	}
	return db.Where("project_id = ?", projectID).Delete(&models.ProductModel{}).Error
}

var _ project.ProductRepository = (*GormProductRepository)(nil)
