package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/migration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStoreNotFound is returned when a project has no store on disk yet, or
// the store holds no row for it
var ErrStoreNotFound = errors.New("persistence: project store not found")

// Gateway owns the catalog connection and opens per-project stores on demand
type Gateway struct {
	catalog   *Database
	projects  *GormProjectRepository
	locator   *StoreLocator
	settings  config.Settings
	importers integration.ImporterFactory
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
}

// NewGateway creates a gateway over an already opened and migrated catalog
func NewGateway(catalog *Database, locator *StoreLocator, settings config.Settings, importers integration.ImporterFactory, logger *zap.Logger) *Gateway {
	return &Gateway{
		catalog:   catalog,
		projects:  NewGormProjectRepository(catalog.DB),
		locator:   locator,
		settings:  settings,
		importers: importers,
		logger:    logger.Named("gateway"),
	}
}

// OpenGateway opens the configured catalog, ensures its schema and returns
// a ready gateway
func OpenGateway(ctx context.Context, cfg *config.Config, importers integration.ImporterFactory, logger *zap.Logger) (*Gateway, error) {
	catalog, err := OpenCatalog(&cfg.Catalog, logger)
	if err != nil {
		return nil, shared.NewPersistenceError("failed to open catalog", err)
	}
	if err := migration.CreateSchema(ctx, catalog.DB); err != nil {
		_ = catalog.Close()
		return nil, shared.NewPersistenceError("failed to create catalog schema", err)
	}
	if _, err := migration.NewColumnMigrator(logger).Migrate(ctx, catalog.DB); err != nil {
		logger.Warn("Catalog column migration failed", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(catalog.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     "catalog",
	}, logger); err != nil {
		logger.Warn("Failed to register catalog tracing", zap.Error(err))
	}
	return NewGateway(catalog, NewStoreLocator(cfg.Stores.Dir), cfg.Settings(), importers, logger), nil
}

// SetSyncMetrics sets the collector catalog syncs are recorded on
func (g *Gateway) SetSyncMetrics(m *telemetry.SyncMetrics) {
	g.metrics = m
}

// Close closes the catalog connection
func (g *Gateway) Close() error {
	return g.catalog.Close()
}

// Ping checks the catalog connection
func (g *Gateway) Ping() error {
	return g.catalog.Ping()
}

// Settings returns the settings the gateway was built with
func (g *Gateway) Settings() config.Settings {
	return g.settings
}

// Locator returns the store locator
func (g *Gateway) Locator() *StoreLocator {
	return g.locator
}

// GetAllProjects returns every catalog project ordered by number
func (g *Gateway) GetAllProjects(ctx context.Context) ([]project.Project, error) {
	return g.projects.FindAll(ctx)
}

// GetProjectByID returns a catalog project
func (g *Gateway) GetProjectByID(ctx context.Context, id uint) (*project.Project, error) {
	return g.projects.FindByID(ctx, id)
}

// GetProjectByNumber returns a catalog project by its natural key
func (g *Gateway) GetProjectByNumber(ctx context.Context, number string) (*project.Project, error) {
	return g.projects.FindByNumber(ctx, number)
}

// CreateOrUpdateProject upserts data into the catalog by number
func (g *Gateway) CreateOrUpdateProject(ctx context.Context, data *project.Project) (*project.Project, error) {
	return g.projects.UpsertByNumber(ctx, data)
}

// SyncProjectsFromInnergy pulls the remote project list into the catalog.
// Entries are upserted in input order inside one transaction which is
// committed once. progress, when not nil, receives 5, 10, a monotonic value
// per entry up to 99, and 100 on success. It returns the number of projects
// written.
func (g *Gateway) SyncProjectsFromInnergy(ctx context.Context, progress func(int)) (count int, err error) {
	started := time.Now()
	defer func() {
		g.metrics.RecordCatalogSync(ctx, count, time.Since(started), err)
	}()

	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "gateway", "sync_projects")
	defer span.End()

	if !g.settings.HasCredentials() {
		err := shared.NewConfigurationError("Innergy API key and base URL must be configured before syncing")
		telemetry.RecordError(span, err)
		return 0, err
	}
	importer, err := g.importers(g.settings.APIKey(), g.settings.BaseURL())
	if err != nil {
		return 0, shared.WrapDomainError(shared.CodeConfiguration, "failed to create importer", err)
	}

	report(5)
	remote, err := importer.ListProjects(ctx)
	if err != nil {
		g.logger.Error("Failed to fetch remote projects", zap.Error(err))
		telemetry.RecordError(span, err)
		if shared.IsTransportError(err) {
			return 0, err
		}
		return 0, shared.NewTransportError("failed to fetch remote projects", err)
	}
	report(10)

	err = g.catalog.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := g.projects.WithTx(tx)
		count = 0
		for i, rp := range remote {
			number := strings.TrimSpace(rp.Number)
			if number == "" {
				g.logger.Warn("Skipping remote project without number",
					zap.String("external_id", rp.ID), zap.String("name", rp.Name))
			} else {
				data := &project.Project{
					Number:      number,
					Name:        strings.TrimSpace(rp.Name),
					Description: rp.SummaryDescription(),
					Address:     rp.Address.Flatten(),
					ExternalID:  rp.ID,
				}
				if _, err := repo.UpsertByNumber(ctx, data); err != nil {
					return fmt.Errorf("upsert project %s: %w", number, err)
				}
				count++
			}
			report(10 + (i+1)*89/len(remote))
		}
		return nil
	})
	if err != nil {
		g.logger.Error("Project sync rolled back", zap.Error(err))
		telemetry.RecordError(span, err)
		return 0, shared.NewPersistenceError("failed to commit project sync", err)
	}

	report(100)
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, count)
	g.logger.Info("Projects synced", zap.Int("count", count), zap.Int("remote", len(remote)))
	return count, nil
}

// ProjectStoreExists reports whether p already has a store on disk
func (g *Gateway) ProjectStoreExists(p *project.Project) bool {
	return g.locator.Exists(p.StoreRef())
}

// StorePath returns the store path of p
func (g *Gateway) StorePath(p *project.Project) string {
	return g.locator.PathFor(p.StoreRef())
}

// PrepareProjectDB creates or opens the store of p, brings its schema up to
// date and makes sure it holds a Project row matching p, looked up by ID and
// then by number. The store path is always returned, also on failure.
func (g *Gateway) PrepareProjectDB(ctx context.Context, p *project.Project) (string, error) {
	path := g.StorePath(p)
	log := g.logger.With(zap.String("project_number", p.Number), zap.String("path", path))

	store, err := OpenStore(path, g.logger)
	if err != nil {
		log.Error("Failed to open project store", zap.Error(err))
		return path, shared.NewPersistenceError("failed to open project store", err)
	}
	defer store.Close()

	if err := migration.CreateSchema(ctx, store.DB); err != nil {
		log.Error("Failed to create project store schema", zap.Error(err))
		return path, shared.NewPersistenceError("failed to create project store schema", err)
	}
	if _, err := migration.NewColumnMigrator(g.logger).Migrate(ctx, store.DB); err != nil {
		log.Warn("Project store column migration failed", zap.Error(err))
	}
	if _, err := ensureProjectRow(ctx, store.DB, p); err != nil {
		log.Error("Failed to ensure project row", zap.Error(err))
		return path, shared.NewPersistenceError("failed to ensure project row", err)
	}
	return path, nil
}

// ensureProjectRow returns the store row for p, inserting a minimal copy
// when neither its ID nor its number is present
func ensureProjectRow(ctx context.Context, db *gorm.DB, p *project.Project) (*project.Project, error) {
	repo := NewGormProjectRepository(db)
	if p.ID != 0 {
		found, err := repo.FindByID(ctx, p.ID)
		if err == nil && (p.Number == "" || found.Number == p.Number) {
			return found, nil
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if p.Number != "" {
		found, err := repo.FindByNumber(ctx, p.Number)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	row := &project.Project{
		ID:          p.ID,
		Number:      p.Number,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		ExternalID:  p.ExternalID,
	}
	// The ID is taken by another project in this store
	if p.ID != 0 {
		if _, err := repo.FindByID(ctx, p.ID); err == nil {
			row.ID = 0
		}
	}
	if err := repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// SessionOption configures how a store session is obtained
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	db *gorm.DB
}

// WithSession makes an operation use db instead of opening a short-lived
// session on the project's store. The caller owns db and its transaction.
func WithSession(db *gorm.DB) SessionOption {
	return func(o *sessionOptions) {
		o.db = db
	}
}

// withStore resolves the catalog project, obtains a store session and calls fn
// with the store-local project. When create is false and the store does not
// exist ErrStoreNotFound is returned.
func (g *Gateway) withStore(ctx context.Context, projectID uint, create bool, opts []SessionOption, fn func(db *gorm.DB, local *project.Project) error) error {
	o := &sessionOptions{}
	for _, opt := range opts {
		opt(o)
	}

	p, err := g.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}

	db := o.db
	if db == nil {
		if !create && !g.ProjectStoreExists(p) {
			return ErrStoreNotFound
		}
		// Stores are migrated on every open
		if _, err := g.PrepareProjectDB(ctx, p); err != nil {
			return err
		}
		store, err := OpenStore(g.StorePath(p), g.logger)
		if err != nil {
			return shared.NewPersistenceError("failed to open project store", err)
		}
		defer store.Close()
		db = store.DB
	}

	var local *project.Project
	if create {
		local, err = ensureProjectRow(ctx, db, p)
	} else {
		local, err = storeProject(ctx, db, p)
		if errors.Is(err, shared.ErrNotFound) {
			return ErrStoreNotFound
		}
	}
	if err != nil {
		return err
	}
	return fn(db, local)
}

// storeProject finds the store row for a catalog project, by number first
func storeProject(ctx context.Context, db *gorm.DB, p *project.Project) (*project.Project, error) {
	repo := NewGormProjectRepository(db)
	if p.Number != "" {
		found, err := repo.FindByNumber(ctx, p.Number)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return found, err
		}
	}
	return repo.FindByID(ctx, p.ID)
}

// LoadCallouts returns the callouts of a project grouped by category. All
// five category keys are present; a project without a store yields empty
// groups.
func (g *Gateway) LoadCallouts(ctx context.Context, projectID uint, opts ...SessionOption) (project.GroupedCallouts, error) {
	grouped := project.NewGroupedCallouts()
	err := g.withStore(ctx, projectID, false, opts, func(db *gorm.DB, local *project.Project) error {
		callouts, err := NewGormCalloutRepository(db).FindByProject(ctx, local.ID)
		if err != nil {
			return err
		}
		grouped = project.GroupCallouts(callouts)
		return nil
	})
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return project.NewGroupedCallouts(), err
	}
	return grouped, nil
}

// ReplaceCallouts replaces the four persisted categories of a project in one
// transaction and returns the number of rows written. The store is prepared
// first when it does not exist.
func (g *Gateway) ReplaceCallouts(ctx context.Context, projectID uint, grouped project.GroupedCallouts, opts ...SessionOption) (int, error) {
	written := 0
	err := g.withStore(ctx, projectID, true, opts, func(db *gorm.DB, local *project.Project) error {
		n, err := NewGormCalloutRepository(db).ReplaceAll(ctx, local.ID, grouped)
		written = n
		return err
	})
	if err != nil {
		g.logger.Error("Failed to replace callouts", zap.Uint("project_id", projectID), zap.Error(err))
		if errors.Is(err, shared.ErrNotFound) {
			return 0, err
		}
		return 0, shared.NewPersistenceError("failed to replace callouts", err)
	}
	return written, nil
}

// GetProducts returns the stored products of a project. A project without a
// store has no products.
func (g *Gateway) GetProducts(ctx context.Context, projectID uint, opts ...SessionOption) ([]project.Product, error) {
	products := []project.Product{}
	err := g.withStore(ctx, projectID, false, opts, func(db *gorm.DB, local *project.Project) error {
		found, err := NewGormProductRepository(db).FindByProject(ctx, local.ID)
		if err != nil {
			return err
		}
		products = found
		return nil
	})
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return nil, err
	}
	return products, nil
}

// ReplaceProducts deletes every product of a project and inserts records in
// one transaction. Locations are resolved by name and created when missing.
func (g *Gateway) ReplaceProducts(ctx context.Context, projectID uint, records []project.Product, opts ...SessionOption) error {
	err := g.withStore(ctx, projectID, true, opts, func(db *gorm.DB, local *project.Project) error {
		uow := NewGormUnitOfWork(db, nil)
		return uow.Execute(ctx, func(ctx context.Context, repos project.Repositories) error {
			if err := repos.Products.DeleteByProject(ctx, local.ID); err != nil {
				return err
			}
			locations := project.NewLocationResolver(repos.Locations, local.ID)
			for i := range records {
				p := records[i]
				p.ID = 0
				p.ProjectID = local.ID
				p.WallID = nil
				locID, err := locations.Resolve(ctx, p.LocationName)
				if err != nil {
					return err
				}
				p.LocationID = locID
				if err := repos.Products.Create(ctx, &p); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		g.logger.Error("Failed to replace products", zap.Uint("project_id", projectID), zap.Error(err))
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return shared.NewPersistenceError("failed to replace products", err)
	}
	g.logger.Info("Products replaced", zap.Uint("project_id", projectID), zap.Int("count", len(records)))
	return nil
}

// OpenProjectUnitOfWork opens the store of p and returns a unit of work on
// it. The caller must Close it.
func (g *Gateway) OpenProjectUnitOfWork(ctx context.Context, p *project.Project) (project.UnitOfWork, error) {
	store, err := OpenStore(g.StorePath(p), g.logger)
	if err != nil {
		return nil, shared.NewPersistenceError("failed to open project store", err)
	}
	return NewGormUnitOfWork(store.DB, store.Close), nil
}

// LoadProjectDetail reads the enriched view of p from its store. The
// returned project keeps p's catalog ID.
func (g *Gateway) LoadProjectDetail(ctx context.Context, p *project.Project) (*project.Detail, error) {
	if !g.ProjectStoreExists(p) {
		return nil, ErrStoreNotFound
	}
	store, err := OpenStore(g.StorePath(p), g.logger)
	if err != nil {
		return nil, shared.NewPersistenceError("failed to open project store", err)
	}
	defer store.Close()

	local, err := storeProject(ctx, store.DB, p)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	repos := RepositoriesFor(store.DB)
	detail := &project.Detail{Project: *local}
	if p.ID != 0 {
		detail.Project.ID = p.ID
	}
	if detail.Locations, err = repos.Locations.FindByProject(ctx, local.ID); err != nil {
		return nil, err
	}
	if detail.Walls, err = repos.Walls.FindByProject(ctx, local.ID); err != nil {
		return nil, err
	}
	if detail.Products, err = repos.Products.FindByProject(ctx, local.ID); err != nil {
		return nil, err
	}
	callouts, err := repos.Callouts.FindByProject(ctx, local.ID)
	if err != nil {
		return nil, err
	}
	detail.Callouts = project.GroupCallouts(callouts)
	return detail, nil
}

// MigrateStores brings the schema of every store in the stores directory up
// to date. Failures are collected per store; the remaining stores are still
// migrated.
func (g *Gateway) MigrateStores(ctx context.Context) (map[string]*migration.MigrationReport, error) {
	paths, err := g.locator.List()
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*migration.MigrationReport, len(paths))
	var errs []error
	for _, path := range paths {
		store, err := OpenStore(path, g.logger)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report, err := migration.EnsureSchema(ctx, store.DB, g.logger)
		_ = store.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		reports[path] = report
	}
	return reports, errors.Join(errs...)
}
