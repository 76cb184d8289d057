package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/migration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ Gateway = (*persistence.Gateway)(nil)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) opened(t *testing.T) *project.ProjectOpenedEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.events, 1, "exactly one event per activation")
	ev, ok := p.events[0].(*project.ProjectOpenedEvent)
	require.True(t, ok)
	return ev
}

// failingLoadGateway fails every store read
type failingLoadGateway struct {
	*persistence.Gateway
}

func (g failingLoadGateway) LoadProjectDetail(ctx context.Context, p *project.Project) (*project.Detail, error) {
	return nil, shared.NewPersistenceError("store unreadable", errors.New("corrupt"))
}

type fixture struct {
	gateway  *persistence.Gateway
	importer *testutil.MockImporter
	calls    int
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	catalog, err := persistence.OpenCatalog(&config.CatalogConfig{ConnectionString: filepath.Join(dir, "catalog.db")}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migration.CreateSchema(context.Background(), catalog.DB))

	f := &fixture{importer: &testutil.MockImporter{}, events: &recordingPublisher{}}
	f.gateway = persistence.NewGateway(catalog, persistence.NewStoreLocator(filepath.Join(dir, "projects")),
		credentials(), testutil.FactoryFor(f.importer, &f.calls), zap.NewNop())
	t.Cleanup(func() { _ = f.gateway.Close() })
	return f
}

func credentials() config.Settings {
	return config.NewSettings("key", "https://api.example.com", "", nil)
}

func (f *fixture) service(gateway Gateway, settings config.Settings) *Service {
	return NewService(gateway, testutil.FactoryFor(f.importer, &f.calls), settings, f.events, zap.NewNop())
}

func (f *fixture) catalogProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := f.gateway.CreateOrUpdateProject(context.Background(), &project.Project{
		Number: "P-100", Name: "Tower", ExternalID: "ext-1",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) expectRemote() {
	raw := testutil.ProjectPayload("ext-1", "P-100", "Tower")
	raw["Locations"] = []any{map[string]any{"Name": "Kitchen"}}
	f.importer.On("FetchProject", mock.Anything, "ext-1").Return(raw, nil)
	f.importer.On("FetchProducts", mock.Anything, "ext-1").Return(testutil.ProductsPayload(
		map[string]any{"Name": "Base", "Quantity": "1", "Location": "Kitchen"},
	), nil)
}

func TestActivate_NewStoreWithCredentials(t *testing.T) {
	f := newFixture(t)
	f.expectRemote()
	p := f.catalogProject(t)

	result, err := f.service(f.gateway, credentials()).Activate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateStart, StateEnsureStore, StateStoreIsNew, StateCheckCredentials,
		StateHasCredentials, StateIngest, StateLoadFromStore, StateDone,
	}, result.States)
	assert.False(t, result.StoreExisted)
	assert.True(t, result.Ingested)
	assert.Empty(t, result.Warnings)
	require.NotNil(t, result.Detail)
	assert.Len(t, result.Detail.Products, 1)
	assert.Equal(t, p.ID, result.Project.ID)
	assert.Equal(t, "1 Main, Austin", result.Project.Address)

	ev := f.events.opened(t)
	assert.True(t, ev.Enriched())
	assert.Equal(t, "P-100", ev.AggregateID())
}

func TestActivate_ExistingStoreSkipsIngestion(t *testing.T) {
	f := newFixture(t)
	f.expectRemote()
	p := f.catalogProject(t)
	_, err := f.gateway.PrepareProjectDB(context.Background(), p)
	require.NoError(t, err)

	result, err := f.service(f.gateway, credentials()).Activate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateStart, StateEnsureStore, StateAlreadyExisted, StateLoadFromStore, StateDone,
	}, result.States)
	assert.True(t, result.StoreExisted)
	assert.False(t, result.Ingested)
	assert.Zero(t, f.calls)
	f.importer.AssertNotCalled(t, "FetchProject", mock.Anything, mock.Anything)
	require.NotNil(t, result.Detail)
	assert.Empty(t, result.Detail.Products)
	assert.True(t, f.events.opened(t).Enriched())
}

func TestActivate_NewStoreWithoutCredentials(t *testing.T) {
	f := newFixture(t)
	p := f.catalogProject(t)
	none := config.NewSettings("", "", "", nil)

	result, err := f.service(f.gateway, none).Activate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateStart, StateEnsureStore, StateStoreIsNew, StateCheckCredentials, StateNoCredentials, StateDone,
	}, result.States)
	assert.Nil(t, result.Detail)
	assert.Equal(t, *p, result.Project)
	assert.Zero(t, f.calls)
	assert.True(t, f.gateway.ProjectStoreExists(p))

	ev := f.events.opened(t)
	assert.False(t, ev.Enriched())
	assert.Equal(t, *p, ev.Project)
}

func TestActivate_IngestionFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	f.importer.On("FetchProject", mock.Anything, "ext-1").
		Return(nil, shared.NewTransportError("innergy request failed", integration.ErrImporterRequestFailed))
	p := f.catalogProject(t)

	result, err := f.service(f.gateway, credentials()).Activate(context.Background(), p)
	require.NoError(t, err)

	assert.Contains(t, result.States, StateLoadFromStore)
	assert.False(t, result.Ingested)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ingest project details")
	require.NotNil(t, result.Detail)
	assert.Equal(t, "Tower", result.Project.Name)
	f.events.opened(t)
}

func TestActivate_LoadFailureFallsBackToOriginal(t *testing.T) {
	f := newFixture(t)
	p := f.catalogProject(t)
	_, err := f.gateway.PrepareProjectDB(context.Background(), p)
	require.NoError(t, err)

	result, err := f.service(failingLoadGateway{f.gateway}, credentials()).Activate(context.Background(), p)
	require.NoError(t, err)

	assert.Nil(t, result.Detail)
	assert.Equal(t, *p, result.Project)
	require.Len(t, result.Warnings, 1)

	ev := f.events.opened(t)
	assert.False(t, ev.Enriched())
	assert.Len(t, ev.Warnings, 1)
}

func TestActivate_NilProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(f.gateway, credentials()).Activate(context.Background(), nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestIngestProjectDetailsIfNeeded(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		f := newFixture(t)
		p := f.catalogProject(t)

		ran, err := f.service(f.gateway, credentials()).IngestProjectDetailsIfNeeded(context.Background(), p, config.NewSettings("", "", "", nil))
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Zero(t, f.calls)
	})

	t.Run("resolves external id by number", func(t *testing.T) {
		f := newFixture(t)
		f.expectRemote()
		f.importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{
			{ID: "ext-9", Number: "P-999"},
			{ID: "ext-1", Number: "p-100"},
		}, nil)
		p := &project.Project{Number: "P-100", Name: "Tower"}

		ran, err := f.service(f.gateway, credentials()).IngestProjectDetailsIfNeeded(context.Background(), p, credentials())
		require.NoError(t, err)
		assert.True(t, ran)
		f.importer.AssertCalled(t, "FetchProject", mock.Anything, "ext-1")
	})

	t.Run("unknown remote project", func(t *testing.T) {
		f := newFixture(t)
		f.importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{}, nil)
		p := &project.Project{Number: "P-404"}

		ran, err := f.service(f.gateway, credentials()).IngestProjectDetailsIfNeeded(context.Background(), p, credentials())
		assert.False(t, ran)
		assert.ErrorIs(t, err, integration.ErrRemoteProjectNotFound)
	})
}

func TestLoadEnrichedProject_NoStore(t *testing.T) {
	f := newFixture(t)
	p := f.catalogProject(t)

	_, err := f.service(f.gateway, credentials()).LoadEnrichedProject(context.Background(), p)
	assert.ErrorIs(t, err, persistence.ErrStoreNotFound)
}
