package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/migration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence/models"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gatewayFixture struct {
	gateway  *Gateway
	importer *testutil.MockImporter
	calls    int
	dir      string
}

func newGatewayFixture(t *testing.T, settings config.Settings) *gatewayFixture {
	t.Helper()
	dir := t.TempDir()

	catalog, err := OpenCatalog(&config.CatalogConfig{
		ConnectionString: filepath.Join(dir, "catalog.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migration.CreateSchema(context.Background(), catalog.DB))

	f := &gatewayFixture{importer: &testutil.MockImporter{}, dir: dir}
	f.gateway = NewGateway(catalog, NewStoreLocator(filepath.Join(dir, "projects")), settings,
		testutil.FactoryFor(f.importer, &f.calls), zap.NewNop())
	t.Cleanup(func() { _ = f.gateway.Close() })
	return f
}

func credentials() config.Settings {
	return config.NewSettings("key", "https://api.example.com/", "", nil)
}

func (f *gatewayFixture) seedProject(t *testing.T, number, name string) *project.Project {
	t.Helper()
	p, err := f.gateway.CreateOrUpdateProject(context.Background(), &project.Project{Number: number, Name: name})
	require.NoError(t, err)
	return p
}

func (f *gatewayFixture) openStore(t *testing.T, p *project.Project) *gorm.DB {
	t.Helper()
	_, err := f.gateway.PrepareProjectDB(context.Background(), p)
	require.NoError(t, err)
	store, err := OpenStore(f.gateway.StorePath(p), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.DB
}

func TestGateway_CreateOrUpdateProject_Idempotent(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()

	first, err := f.gateway.CreateOrUpdateProject(ctx, &project.Project{Number: "P-1", Name: "Kitchen"})
	require.NoError(t, err)
	second, err := f.gateway.CreateOrUpdateProject(ctx, &project.Project{Number: " P-1 ", Name: "Kitchen"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	all, err := f.gateway.GetAllProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGateway_CreateOrUpdateProject_UpdatesInPlace(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()

	first := f.seedProject(t, "P-1", "Kitchen")
	updated, err := f.gateway.CreateOrUpdateProject(ctx, &project.Project{
		ID:          999,
		Number:      "P-1",
		Name:        "Kitchen Remodel",
		Description: "phase 2",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "Kitchen Remodel", updated.Name)
	assert.Equal(t, "phase 2", updated.Description)
}

func TestGateway_CreateOrUpdateProject_RequiresNumber(t *testing.T) {
	f := newGatewayFixture(t, credentials())

	_, err := f.gateway.CreateOrUpdateProject(context.Background(), &project.Project{Name: "no number"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestGateway_GetProjectByNumber_NotFound(t *testing.T) {
	f := newGatewayFixture(t, credentials())

	_, err := f.gateway.GetProjectByNumber(context.Background(), "missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGateway_SyncProjectsFromInnergy(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()

	f.importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{
		{ID: "ext-1", Number: "P-100", Name: "Tower", Address: integration.Address{Address1: "1 Main"}},
	}, nil)

	var progress []int
	count, err := f.gateway.SyncProjectsFromInnergy(ctx, func(p int) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, []int{5, 10, 99, 100}, progress)

	p, err := f.gateway.GetProjectByNumber(ctx, "P-100")
	require.NoError(t, err)
	assert.Equal(t, "Tower", p.Name)
	assert.Equal(t, "1 Main", p.Description)
	assert.Equal(t, "1 Main", p.Address)
	assert.Equal(t, "ext-1", p.ExternalID)
}

func TestGateway_SyncProjectsFromInnergy_ProgressIsMonotonic(t *testing.T) {
	f := newGatewayFixture(t, credentials())

	remote := []integration.RemoteProject{
		{ID: "1", Number: "A"},
		{ID: "2", Number: ""},
		{ID: "3", Number: "C"},
	}
	f.importer.On("ListProjects", mock.Anything).Return(remote, nil)

	var progress []int
	count, err := f.gateway.SyncProjectsFromInnergy(context.Background(), func(p int) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, []int{5, 10, 39, 69, 99, 100}, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
}

func TestGateway_SyncProjectsFromInnergy_UpdatesExisting(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	existing := f.seedProject(t, "P-100", "Old")

	f.importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{
		{ID: "ext-1", Number: "P-100", Name: "New", Description: "desc"},
	}, nil)

	_, err := f.gateway.SyncProjectsFromInnergy(ctx, nil)
	require.NoError(t, err)

	p, err := f.gateway.GetProjectByNumber(ctx, "P-100")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, p.ID)
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, "desc", p.Description)
}

func TestGateway_SyncProjectsFromInnergy_MissingCredentials(t *testing.T) {
	f := newGatewayFixture(t, config.NewSettings("", "https://api.example.com", "", nil))

	var progress []int
	count, err := f.gateway.SyncProjectsFromInnergy(context.Background(), func(p int) { progress = append(progress, p) })

	require.Error(t, err)
	assert.True(t, shared.IsConfigurationError(err))
	assert.Zero(t, count)
	assert.Empty(t, progress)
	assert.Zero(t, f.calls)
	f.importer.AssertNotCalled(t, "ListProjects", mock.Anything)
}

func TestGateway_SyncProjectsFromInnergy_TransportError(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	f.seedProject(t, "P-1", "Kept")

	f.importer.On("ListProjects", mock.Anything).Return(nil, errors.New("connection refused"))

	var progress []int
	_, err := f.gateway.SyncProjectsFromInnergy(ctx, func(p int) { progress = append(progress, p) })

	require.Error(t, err)
	assert.True(t, shared.IsTransportError(err))
	assert.Equal(t, []int{5}, progress)

	all, err := f.gateway.GetAllProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGateway_SyncProjectsFromInnergy_RecordsMetrics(t *testing.T) {
	reader := testutil.NewMetricReader(t)
	metrics, err := telemetry.NewSyncMetrics(reader.Meter)
	require.NoError(t, err)

	f := newGatewayFixture(t, credentials())
	f.gateway.SetSyncMetrics(metrics)
	f.importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{
		{ID: "1", Number: "A"},
		{ID: "2", Number: "B"},
	}, nil).Once()
	f.importer.On("ListProjects", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err = f.gateway.SyncProjectsFromInnergy(context.Background(), nil)
	require.NoError(t, err)
	_, err = f.gateway.SyncProjectsFromInnergy(context.Background(), nil)
	require.Error(t, err)

	success := telemetry.AttrOutcome.String(telemetry.OutcomeSuccess)
	failure := telemetry.AttrOutcome.String(telemetry.OutcomeFailure)
	assert.Equal(t, int64(1), reader.CounterValue(t, "mmx_catalog_sync_total", success))
	assert.Equal(t, int64(1), reader.CounterValue(t, "mmx_catalog_sync_total", failure))
	assert.Equal(t, int64(2), reader.CounterValue(t, "mmx_catalog_sync_projects_total"))
	assert.Equal(t, uint64(2), reader.HistogramCount(t, "mmx_catalog_sync_duration_seconds"))
}

func TestGateway_PrepareProjectDB(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")

	path, err := f.gateway.PrepareProjectDB(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "projects", "P-1.db"), path)
	assert.True(t, f.gateway.ProjectStoreExists(p))

	// second call must not duplicate the row
	_, err = f.gateway.PrepareProjectDB(ctx, p)
	require.NoError(t, err)

	store, err := OpenStore(path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	var rows []models.ProjectModel
	require.NoError(t, store.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, p.ID, rows[0].ID)
	assert.Equal(t, "P-1", rows[0].Number)
	assert.Equal(t, "Kitchen", rows[0].Name)
}

func TestGateway_PrepareProjectDB_MatchesByNumber(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")

	store := f.openStore(t, p)
	// store row under a different local id
	require.NoError(t, store.Model(&models.ProjectModel{}).Where("number = ?", "P-1").Update("id", 42).Error)

	_, err := f.gateway.PrepareProjectDB(ctx, p)
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.Model(&models.ProjectModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGateway_PrepareProjectDB_ReturnsPathOnFailure(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	p := &project.Project{ID: 1, Number: "P-1"}
	// a directory where the store file should be
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "projects", "P-1.db"), 0o755))

	path, err := f.gateway.PrepareProjectDB(context.Background(), p)
	require.Error(t, err)
	assert.True(t, shared.IsPersistenceError(err))
	assert.Equal(t, filepath.Join(f.dir, "projects", "P-1.db"), path)
}

func TestGateway_LoadCallouts_NoStore(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	p := f.seedProject(t, "P-1", "Kitchen")

	grouped, err := f.gateway.LoadCallouts(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, grouped, 5)
	assert.Zero(t, grouped.Count())
	assert.False(t, f.gateway.ProjectStoreExists(p))
}

func TestGateway_ReplaceCallouts(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")

	grouped := project.NewGroupedCallouts()
	grouped[project.CalloutFinish] = []project.CalloutRow{
		{Type: "Finish", Name: "Walnut", Tag: "F1", Description: "oiled"},
		{Type: "Finish", Name: "Maple", Tag: "F2"},
	}
	grouped[project.CalloutSink] = []project.CalloutRow{{Type: "Sink", Name: "Undermount", Tag: "S1"}}
	grouped[project.CalloutUncategorized] = []project.CalloutRow{{Name: "Ignored", Tag: "U1"}}

	written, err := f.gateway.ReplaceCallouts(ctx, p.ID, grouped)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	loaded, err := f.gateway.LoadCallouts(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, loaded, 5)
	assert.Len(t, loaded[project.CalloutFinish], 2)
	assert.Len(t, loaded[project.CalloutSink], 1)
	assert.Empty(t, loaded[project.CalloutHardware])
	assert.Empty(t, loaded[project.CalloutUncategorized])
	assert.Equal(t, "oiled", loaded[project.CalloutFinish][0].Description)

	// replacing with one category empties the others
	next := project.NewGroupedCallouts()
	next[project.CalloutHardware] = []project.CalloutRow{{Name: "Pull", Tag: "H1"}}
	written, err = f.gateway.ReplaceCallouts(ctx, p.ID, next)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	loaded, err = f.gateway.LoadCallouts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Count())
	assert.Len(t, loaded[project.CalloutHardware], 1)
}

func TestGateway_ReplaceCallouts_Atomic(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")
	store := f.openStore(t, p)

	initial := project.NewGroupedCallouts()
	initial[project.CalloutFinish] = []project.CalloutRow{{Name: "Walnut", Tag: "F1"}}
	_, err := f.gateway.ReplaceCallouts(ctx, p.ID, initial, WithSession(store))
	require.NoError(t, err)

	require.NoError(t, store.Callback().Create().Before("gorm:create").Register("test:fail_sink", func(tx *gorm.DB) {
		if batch, ok := tx.Statement.Dest.(*[]models.CalloutModel); ok && len(*batch) > 0 && (*batch)[0].Type == "Sink" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	next := project.NewGroupedCallouts()
	next[project.CalloutFinish] = []project.CalloutRow{{Name: "Oak", Tag: "F9"}}
	next[project.CalloutSink] = []project.CalloutRow{{Name: "Farmhouse", Tag: "S1"}}
	_, err = f.gateway.ReplaceCallouts(ctx, p.ID, next, WithSession(store))
	require.Error(t, err)
	assert.True(t, shared.IsPersistenceError(err))

	loaded, err := f.gateway.LoadCallouts(ctx, p.ID, WithSession(store))
	require.NoError(t, err)
	require.Len(t, loaded[project.CalloutFinish], 1)
	assert.Equal(t, "Walnut", loaded[project.CalloutFinish][0].Name)
	assert.Empty(t, loaded[project.CalloutSink])
}

func TestGateway_ReplaceCallouts_UnknownProject(t *testing.T) {
	f := newGatewayFixture(t, credentials())

	_, err := f.gateway.ReplaceCallouts(context.Background(), 404, project.NewGroupedCallouts())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGateway_ReplaceProducts(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")

	products, err := f.gateway.GetProducts(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, products)

	records := []project.Product{
		{
			Name:         "Base Cabinet",
			LocationName: "Kitchen",
			Quantity:     decimal.NewFromInt(2),
			Width:        decimal.RequireFromString("24.5"),
			CustomFields: []project.CustomField{{Name: "Finish", Value: "Walnut"}},
		},
		{Name: "Wall Cabinet", LocationName: "Kitchen", Quantity: decimal.NewFromInt(1)},
		{Name: "Vanity", LocationName: "Bath", Quantity: decimal.NewFromInt(1)},
		{Name: "Loose", Quantity: decimal.NewFromInt(1)},
	}
	require.NoError(t, f.gateway.ReplaceProducts(ctx, p.ID, records))

	products, err = f.gateway.GetProducts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, "Kitchen", products[0].LocationName)
	assert.True(t, products[0].Width.Equal(decimal.RequireFromString("24.5")))
	require.Len(t, products[0].CustomFields, 1)
	assert.Equal(t, "Walnut", products[0].CustomFields[0].Value)
	assert.Equal(t, products[0].LocationID, products[1].LocationID)
	assert.NotEqual(t, products[0].LocationID, products[2].LocationID)
	assert.Nil(t, products[3].LocationID)

	// replace again with a single product
	require.NoError(t, f.gateway.ReplaceProducts(ctx, p.ID, records[2:3]))
	products, err = f.gateway.GetProducts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Vanity", products[0].Name)

	detail, err := f.gateway.LoadProjectDetail(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, detail.Project.ID)
	assert.Len(t, detail.Locations, 2)
	assert.Len(t, detail.Products, 1)
	assert.Len(t, detail.Callouts, 5)
}

func TestGateway_LoadProjectDetail_NoStore(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	p := f.seedProject(t, "P-1", "Kitchen")

	_, err := f.gateway.LoadProjectDetail(context.Background(), p)
	assert.ErrorIs(t, err, ErrStoreNotFound)
	assert.False(t, errors.Is(err, shared.ErrNotFound))
}

func TestGateway_OpenProjectUnitOfWork(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	p := f.seedProject(t, "P-1", "Kitchen")
	_, err := f.gateway.PrepareProjectDB(ctx, p)
	require.NoError(t, err)

	uow, err := f.gateway.OpenProjectUnitOfWork(ctx, p)
	require.NoError(t, err)
	defer uow.Close()

	sentinel := errors.New("abort")
	err = uow.Execute(ctx, func(ctx context.Context, repos project.Repositories) error {
		if err := repos.Locations.Create(ctx, &project.Location{ProjectID: p.ID, Name: "Pantry"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	err = uow.Execute(ctx, func(ctx context.Context, repos project.Repositories) error {
		locs, err := repos.Locations.FindByProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, locs)
		return nil
	})
	require.NoError(t, err)
}

func TestGateway_MigrateStores(t *testing.T) {
	f := newGatewayFixture(t, credentials())
	ctx := context.Background()
	for _, n := range []string{"P-1", "P-2"} {
		p := f.seedProject(t, n, n)
		_, err := f.gateway.PrepareProjectDB(ctx, p)
		require.NoError(t, err)
	}

	reports, err := f.gateway.MigrateStores(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	for _, r := range reports {
		assert.Empty(t, r.Added)
	}
}
