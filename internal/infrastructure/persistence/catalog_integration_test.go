//go:build integration

package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresCatalog_Sync(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	dsn := testutil.NewPostgresDSN(t)

	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			ConnectionString: dsn,
			MaxOpenConns:     5,
			MaxIdleConns:     1,
		},
		Stores:  config.StoresConfig{Dir: filepath.Join(t.TempDir(), "projects")},
		Innergy: config.InnergyConfig{APIKey: "key", BaseURL: "https://api.example.com"},
	}

	importer := &testutil.MockImporter{}
	importer.On("ListProjects", mock.Anything).Return([]integration.RemoteProject{
		{ID: "ext-1", Number: "P-100", Name: "Tower", Address: integration.Address{Address1: "1 Main"}},
		{ID: "ext-2", Number: "P-200", Name: "Annex"},
	}, nil)

	g, err := OpenGateway(ctx, cfg, testutil.FactoryFor(importer, nil), zap.NewNop())
	require.NoError(t, err)
	defer g.Close()

	count, err := g.SyncProjectsFromInnergy(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// second sync updates in place
	count, err = g.SyncProjectsFromInnergy(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := g.GetAllProjects(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P-100", all[0].Number)
	assert.Equal(t, "1 Main", all[0].Description)

	// stores stay sqlite even with a postgres catalog
	path, err := g.PrepareProjectDB(ctx, &all[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Stores.Dir, "P-100.db"), path)
}
