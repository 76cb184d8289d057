package persistence

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"gorm.io/gorm"
)

// RepositoriesFor binds every project repository to db
func RepositoriesFor(db *gorm.DB) project.Repositories {
	return project.Repositories{
		Projects:  NewGormProjectRepository(db),
		Locations: NewGormLocationRepository(db),
		Walls:     NewGormWallRepository(db),
		Products:  NewGormProductRepository(db),
		Callouts:  NewGormCalloutRepository(db),
	}
}

// GormUnitOfWork runs repository work in one transaction on one store
type GormUnitOfWork struct {
	db     *gorm.DB
	closer func() error
}

// NewGormUnitOfWork creates a unit of work on db. closer, when not nil, is
// called by Close to release the store.
func NewGormUnitOfWork(db *gorm.DB, closer func() error) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, closer: closer}
}

// Execute implements project.UnitOfWork
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos project.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, RepositoriesFor(tx))
	})
}

// Close implements project.UnitOfWork
func (u *GormUnitOfWork) Close() error {
	if u.closer == nil {
		return nil
	}
	err := u.closer()
	u.closer = nil
	return err
}

var _ project.UnitOfWork = (*GormUnitOfWork)(nil)
