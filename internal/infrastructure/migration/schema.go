// Package migration keeps catalog and project store schemas current.
//
// Tables are created from the persistence models when missing. Tables that
// already exist are never altered by CreateSchema; columns introduced after a
// store was first written are added by ColumnMigrator.
package migration

import (
	"context"
	"fmt"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateSchema creates every missing table
func CreateSchema(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	for _, model := range models.All() {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// EnsureSchema creates missing tables and then adds missing columns
func EnsureSchema(ctx context.Context, db *gorm.DB, logger *zap.Logger) (*MigrationReport, error) {
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return NewColumnMigrator(logger).Migrate(ctx, db)
}
