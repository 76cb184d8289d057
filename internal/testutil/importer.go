package testutil

import (
	"context"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/stretchr/testify/mock"
)

// MockImporter is a testify mock of integration.ProjectImporter
type MockImporter struct {
	mock.Mock
}

// ListProjects implements integration.ProjectImporter
func (m *MockImporter) ListProjects(ctx context.Context) ([]integration.RemoteProject, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]integration.RemoteProject)
	return projects, args.Error(1)
}

// FetchProject implements integration.ProjectImporter
func (m *MockImporter) FetchProject(ctx context.Context, id string) (integration.RawPayload, error) {
	args := m.Called(ctx, id)
	payload, _ := args.Get(0).(integration.RawPayload)
	return payload, args.Error(1)
}

// FetchProducts implements integration.ProjectImporter
func (m *MockImporter) FetchProducts(ctx context.Context, id string) (integration.RawPayload, error) {
	args := m.Called(ctx, id)
	payload, _ := args.Get(0).(integration.RawPayload)
	return payload, args.Error(1)
}

// FactoryFor returns an importer factory that always yields imp and counts
// how often it was called
func FactoryFor(imp integration.ProjectImporter, calls *int) integration.ImporterFactory {
	return func(apiKey, baseURL string) (integration.ProjectImporter, error) {
		if calls != nil {
			*calls++
		}
		if apiKey == "" || baseURL == "" {
			return nil, integration.ErrImporterNotConfigured
		}
		return imp, nil
	}
}

// ProjectPayload builds a raw project document as the remote API returns it
func ProjectPayload(id, number, name string) integration.RawPayload {
	return integration.RawPayload{
		"Id":     id,
		"Number": number,
		"Name":   name,
		"Address": map[string]any{
			"Address1": "1 Main",
			"City":     "Austin",
		},
	}
}

// ProductsPayload builds a raw products document
func ProductsPayload(items ...map[string]any) integration.RawPayload {
	list := make([]any, 0, len(items))
	for _, it := range items {
		list = append(list, it)
	}
	return integration.RawPayload{"Items": list}
}
