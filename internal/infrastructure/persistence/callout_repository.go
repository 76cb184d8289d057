package persistence

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCalloutRepository implements project.CalloutRepository
type GormCalloutRepository struct {
	db *gorm.DB
}

// NewGormCalloutRepository creates a new GormCalloutRepository
func NewGormCalloutRepository(db *gorm.DB) *GormCalloutRepository {
	return &GormCalloutRepository{db: db}
}

// FindByProject returns the callouts of a project
func (r *GormCalloutRepository) FindByProject(ctx context.Context, projectID uint) ([]project.Callout, error) {
	var ms []models.CalloutModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]project.Callout, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

// ReplaceAll deletes and re-inserts the rows of the four persisted
// categories inside one transaction. Uncategorized rows are ignored. When the
// repository is already bound to a transaction a savepoint is used.
func (r *GormCalloutRepository) ReplaceAll(ctx context.Context, projectID uint, grouped project.GroupedCallouts) (int, error) {
	written := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		written = 0
		for _, category := range project.PersistedCategories() {
			if err := tx.Where("project_id = ? AND type = ?", projectID, string(category)).
				Delete(&models.CalloutModel{}).Error; err != nil {
				return err
			}

			rows := grouped[category]
			if len(rows) == 0 {
				continue
			}
			batch := make([]models.CalloutModel, 0, len(rows))
			for _, row := range rows {
				batch = append(batch, *models.CalloutModelFromRow(projectID, category, row))
			}
			if err := tx.Create(&batch).Error; err != nil {
				return err
			}
			written += len(batch)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

var _ project.CalloutRepository = (*GormCalloutRepository)(nil)
