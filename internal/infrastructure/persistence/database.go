package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	zaplog "github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds a database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DialectorFor selects the driver for a connection string: postgres URLs use
// the postgres driver, anything else is treated as a sqlite file path.
func DialectorFor(conn string) gorm.Dialector {
	lower := strings.ToLower(conn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgres.Open(conn)
	}
	return sqlite.Open(sqliteDSN(conn))
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

func gormConfig(zl *zap.Logger, level logger.LogLevel) *gorm.Config {
	var gl logger.Interface = logger.Default.LogMode(logger.Silent)
	if zl != nil {
		gl = zaplog.NewGormLogger(zl, level)
	}
	return &gorm.Config{
		Logger:                                   gl,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// OpenCatalog opens the shared catalog described by cfg
func OpenCatalog(cfg *config.CatalogConfig, zl *zap.Logger) (*Database, error) {
	if !cfg.IsPostgres() {
		if err := ensureParentDir(cfg.ConnectionString); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(DialectorFor(cfg.ConnectionString), gormConfig(zl, logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	} else {
		// single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}
	return &Database{DB: db}, nil
}

// OpenStore opens (creating if needed) the sqlite store at path
func OpenStore(path string, zl *zap.Logger) (*Database, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(zl, logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("failed to open project store %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return &Database{DB: db}, nil
}

func ensureParentDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
