package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Column is a nullable column added after the first schema release
type Column struct {
	Name string
	Type string
}

// TableColumns lists the added columns of one table
type TableColumns struct {
	Table   string
	Columns []Column
}

// ExpectedColumns returns the columns that stores written by earlier
// releases may lack. Entries are only ever appended; columns are never
// renamed or removed.
func ExpectedColumns() []TableColumns {
	return []TableColumns{
		{Table: "projects", Columns: []Column{
			{Name: "address", Type: "TEXT"},
			{Name: "external_id", Type: "VARCHAR(100)"},
		}},
		{Table: "products", Columns: []Column{
			{Name: "wall_id", Type: "INTEGER"},
			{Name: "item_number", Type: "VARCHAR(100)"},
			{Name: "comment", Type: "TEXT"},
			{Name: "angle", Type: "NUMERIC"},
			{Name: "link_id", Type: "VARCHAR(100)"},
			{Name: "link_id_specification_group", Type: "VARCHAR(100)"},
			{Name: "link_id_location", Type: "VARCHAR(100)"},
			{Name: "file_name", Type: "VARCHAR(255)"},
			{Name: "picture_name", Type: "VARCHAR(255)"},
		}},
		{Table: "callouts", Columns: []Column{
			{Name: "description", Type: "TEXT"},
			{Name: "specification_group_id", Type: "INTEGER"},
		}},
	}
}

// AddedColumn records one column added by a migration run
type AddedColumn struct {
	Table  string
	Column string
}

// MigrationReport describes one ColumnMigrator run
type MigrationReport struct {
	Dialect string
	Skipped bool
	Added   []AddedColumn
}

// ColumnMigrator adds missing nullable columns to existing tables
type ColumnMigrator struct {
	logger   *zap.Logger
	expected []TableColumns
}

// NewColumnMigrator creates a migrator for ExpectedColumns
func NewColumnMigrator(logger *zap.Logger) *ColumnMigrator {
	return &ColumnMigrator{logger: logger, expected: ExpectedColumns()}
}

// Migrate inspects the live schema of db and adds every expected column that
// is absent. Running it again is a no-op. Only the embedded sqlite backend is
// migrated; other dialects are skipped with a warning and no error. Tables
// that do not exist yet are left to CreateSchema.
func (c *ColumnMigrator) Migrate(ctx context.Context, db *gorm.DB) (*MigrationReport, error) {
	report := &MigrationReport{Dialect: db.Dialector.Name()}
	if report.Dialect != "sqlite" {
		c.logger.Warn("Skipping column migration for unsupported dialect",
			zap.String("dialect", report.Dialect))
		report.Skipped = true
		return report, nil
	}

	tx := db.WithContext(ctx)
	m := tx.Migrator()
	for _, tc := range c.expected {
		if !m.HasTable(tc.Table) {
			continue
		}
		for _, col := range tc.Columns {
			if m.HasColumn(tc.Table, col.Name) {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				quoteIdent(tc.Table), quoteIdent(col.Name), col.Type)
			if err := tx.Exec(stmt).Error; err != nil {
				return report, fmt.Errorf("failed to add column %s.%s: %w", tc.Table, col.Name, err)
			}
			report.Added = append(report.Added, AddedColumn{Table: tc.Table, Column: col.Name})
			c.logger.Info("Added column",
				zap.String("table", tc.Table),
				zap.String("column", col.Name),
				zap.String("type", col.Type))
		}
	}
	return report, nil
}

func quoteIdent(s string) string {
	return `"` + s + `"`
}
