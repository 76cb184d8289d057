package ingestion

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/migration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateway(t *testing.T, importer integration.ProjectImporter) *persistence.Gateway {
	t.Helper()
	dir := t.TempDir()
	catalog, err := persistence.OpenCatalog(&config.CatalogConfig{ConnectionString: filepath.Join(dir, "catalog.db")}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migration.CreateSchema(context.Background(), catalog.DB))

	g := persistence.NewGateway(catalog, persistence.NewStoreLocator(filepath.Join(dir, "projects")),
		config.NewSettings("key", "https://api.example.com", "", nil),
		testutil.FactoryFor(importer, nil), zap.NewNop())
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func remoteProject() integration.RawPayload {
	p := testutil.ProjectPayload("ext-1", "P-100", "Tower")
	p["Locations"] = []any{map[string]any{"Name": "Kitchen"}, map[string]any{"Name": "Bath"}}
	return p
}

func remoteProducts() integration.RawPayload {
	return testutil.ProductsPayload(
		map[string]any{"Name": "Base", "Quantity": "2", "Location": "Kitchen",
			"CustomFields": []any{map[string]any{"Name": "Finish", "Value": "Walnut"}}},
		map[string]any{"Name": "Pantry Unit", "Quantity": "1", "Location": "Pantry"},
	)
}

func TestService_Ingest(t *testing.T) {
	importer := &testutil.MockImporter{}
	importer.On("FetchProject", mock.Anything, "ext-1").Return(remoteProject(), nil)
	importer.On("FetchProducts", mock.Anything, "ext-1").Return(remoteProducts(), nil)
	g := newGateway(t, importer)
	svc := NewService(importer, g, zap.NewNop())
	ctx := context.Background()

	result, err := svc.Ingest(ctx, "ext-1")
	require.NoError(t, err)

	assert.Equal(t, "P-100", result.Project.Number)
	assert.Equal(t, "Tower", result.Project.Name)
	assert.Equal(t, "1 Main, Austin", result.Project.Address)
	assert.Equal(t, 2, result.Diagnostics.LocationsCreated)
	assert.Equal(t, 2, result.Diagnostics.ProductsInserted)
	assert.NotEqual(t, "", result.Diagnostics.RunID.String())
	assert.NotNil(t, result.Diagnostics.RawProject)
	assert.Equal(t, "P-100.db", filepath.Base(result.Diagnostics.StorePath))

	detail, err := g.LoadProjectDetail(ctx, &project.Project{Number: "P-100"})
	require.NoError(t, err)
	assert.Len(t, detail.Locations, 3)
	require.Len(t, detail.Products, 2)
	assert.Equal(t, "Kitchen", detail.Products[0].LocationName)
	assert.Equal(t, "Pantry", detail.Products[1].LocationName)
	require.Len(t, detail.Products[0].CustomFields, 1)
}

func TestService_Ingest_IdempotentIdentityAppendsProducts(t *testing.T) {
	importer := &testutil.MockImporter{}
	importer.On("FetchProject", mock.Anything, "ext-1").Return(remoteProject(), nil)
	importer.On("FetchProducts", mock.Anything, "ext-1").Return(remoteProducts(), nil)
	g := newGateway(t, importer)
	svc := NewService(importer, g, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Ingest(ctx, "ext-1")
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, "ext-1")
	require.NoError(t, err)

	assert.Equal(t, first.Project.ID, second.Project.ID)
	assert.Zero(t, second.Diagnostics.LocationsCreated)
	assert.NotEqual(t, first.Diagnostics.RunID, second.Diagnostics.RunID)

	detail, err := g.LoadProjectDetail(ctx, &project.Project{Number: "P-100"})
	require.NoError(t, err)
	assert.Len(t, detail.Locations, 3)
	assert.Len(t, detail.Products, 4)
}

func TestService_Ingest_MatchesCatalogRow(t *testing.T) {
	importer := &testutil.MockImporter{}
	importer.On("FetchProject", mock.Anything, "ext-1").Return(remoteProject(), nil)
	importer.On("FetchProducts", mock.Anything, "ext-1").Return(nil, nil)
	g := newGateway(t, importer)
	ctx := context.Background()

	catalog, err := g.CreateOrUpdateProject(ctx, &project.Project{Number: "P-100", Name: "Old"})
	require.NoError(t, err)
	_, err = g.PrepareProjectDB(ctx, catalog)
	require.NoError(t, err)

	result, err := NewService(importer, g, zap.NewNop()).Ingest(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.ID, result.Project.ID)
	assert.Equal(t, "Tower", result.Project.Name)
	assert.Zero(t, result.Diagnostics.ProductsInserted)
}

func TestService_Ingest_FetchErrorPropagates(t *testing.T) {
	importer := &testutil.MockImporter{}
	fetchErr := shared.NewTransportError("innergy request failed", errors.New("timeout"))
	importer.On("FetchProject", mock.Anything, "ext-1").Return(nil, fetchErr)
	g := newGateway(t, importer)

	_, err := NewService(importer, g, zap.NewNop()).Ingest(context.Background(), "ext-1")
	require.Error(t, err)
	assert.True(t, shared.IsTransportError(err))
	assert.False(t, g.ProjectStoreExists(&project.Project{Number: "P-100"}))
	importer.AssertNotCalled(t, "FetchProducts", mock.Anything, mock.Anything)
}

func TestService_Ingest_RequiresNumber(t *testing.T) {
	importer := &testutil.MockImporter{}
	importer.On("FetchProject", mock.Anything, "ext-1").Return(integration.RawPayload{"Name": "nameless"}, nil)
	importer.On("FetchProducts", mock.Anything, "ext-1").Return(nil, nil)
	g := newGateway(t, importer)

	_, err := NewService(importer, g, zap.NewNop()).Ingest(context.Background(), "ext-1")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewService(importer, g, zap.NewNop()).Ingest(context.Background(), " ")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestService_IngestRecordsMetrics(t *testing.T) {
	reader := testutil.NewMetricReader(t)
	metrics, err := telemetry.NewSyncMetrics(reader.Meter)
	require.NoError(t, err)

	importer := &testutil.MockImporter{}
	importer.On("FetchProject", mock.Anything, "ext-1").Return(remoteProject(), nil)
	importer.On("FetchProducts", mock.Anything, "ext-1").Return(remoteProducts(), nil)
	importer.On("FetchProject", mock.Anything, "ext-9").Return(nil, errors.New("connection refused"))
	svc := NewService(importer, newGateway(t, importer), zap.NewNop())
	svc.SetSyncMetrics(metrics)
	ctx := context.Background()

	_, err = svc.Ingest(ctx, "ext-1")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "ext-9")
	require.Error(t, err)

	assert.Equal(t, int64(2), reader.CounterValue(t, "mmx_ingest_products_total"))
	assert.Equal(t, int64(2), reader.CounterValue(t, "mmx_ingest_locations_total"))
	assert.Equal(t, int64(1), reader.CounterValue(t, "mmx_ingest_total", telemetry.AttrOutcome.String(telemetry.OutcomeSuccess)))
	assert.Equal(t, int64(1), reader.CounterValue(t, "mmx_ingest_total", telemetry.AttrOutcome.String(telemetry.OutcomeFailure)))
	assert.Equal(t, uint64(2), reader.HistogramCount(t, "mmx_ingest_duration_seconds"))
}
