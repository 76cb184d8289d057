// Package reconcile compares freshly fetched remote products against the
// project store and stages differences until the user confirms them.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/ingestion"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Status is the outcome of a refresh
type Status string

const (
	// StatusNoChanges means remote and local products are equal
	StatusNoChanges Status = "NoChanges"
	// StatusChangesStaged means the remote list was staged for confirmation
	StatusChangesStaged Status = "ChangesStaged"
)

// Gateway is the part of the persistence gateway reconciliation needs
type Gateway interface {
	GetProjectByID(ctx context.Context, id uint) (*project.Project, error)
	GetProjectByNumber(ctx context.Context, number string) (*project.Project, error)
	GetProducts(ctx context.Context, projectID uint, opts ...persistence.SessionOption) ([]project.Product, error)
	ReplaceProducts(ctx context.Context, projectID uint, records []project.Product, opts ...persistence.SessionOption) error
}

// RefreshResult describes a refresh
type RefreshResult struct {
	ProjectID     uint   `json:"project_id"`
	Status        Status `json:"status"`
	LocalCount    int    `json:"local_count"`
	ExternalCount int    `json:"external_count"`
	// CanConfirm is true when staged products await confirmation
	CanConfirm bool `json:"can_confirm"`
}

// Staged is a fetched product list awaiting confirmation
type Staged struct {
	ProjectID uint              `json:"project_id"`
	Products  []project.Product `json:"products"`
	StagedAt  time.Time         `json:"staged_at"`
}

// Service refreshes and confirms product lists
type Service struct {
	gateway   Gateway
	importers integration.ImporterFactory
	settings  config.Settings
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger

	mu     sync.Mutex
	staged map[uint]*Staged
}

// NewService creates a new reconciliation service
func NewService(gateway Gateway, importers integration.ImporterFactory, settings config.Settings, logger *zap.Logger) *Service {
	return &Service{
		gateway:   gateway,
		importers: importers,
		settings:  settings,
		logger:    logger.Named("reconcile"),
		staged:    make(map[uint]*Staged),
	}
}

// SetSyncMetrics sets the collector refreshes are recorded on
func (s *Service) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// GetProductsFromDB returns the stored products of a project
func (s *Service) GetProductsFromDB(ctx context.Context, projectID uint) ([]project.Product, error) {
	return s.gateway.GetProducts(ctx, projectID)
}

// ReplaceProductsForProject replaces the stored products of a project
func (s *Service) ReplaceProductsForProject(ctx context.Context, projectID uint, records []project.Product) error {
	return s.gateway.ReplaceProducts(ctx, projectID, records)
}

// FetchProductsFromExternal fetches and maps the remote products of the
// project with the given number. The remote id comes from the catalog, or
// from the remote project list when the catalog has none.
func (s *Service) FetchProductsFromExternal(ctx context.Context, projectNumber string) ([]project.Product, error) {
	projectNumber = strings.TrimSpace(projectNumber)
	if !s.settings.HasCredentials() {
		return nil, shared.NewConfigurationError("Innergy API key and base URL must be configured before fetching products")
	}
	importer, err := s.importers(s.settings.APIKey(), s.settings.BaseURL())
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeConfiguration, "failed to create importer", err)
	}

	externalID := ""
	if p, err := s.gateway.GetProjectByNumber(ctx, projectNumber); err == nil {
		externalID = p.ExternalID
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if externalID == "" {
		remote, err := importer.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		for _, rp := range remote {
			if strings.EqualFold(strings.TrimSpace(rp.Number), projectNumber) {
				externalID = rp.ID
				break
			}
		}
	}
	if externalID == "" {
		return nil, shared.NewTransportError("project "+projectNumber, integration.ErrRemoteProjectNotFound)
	}

	raw, err := importer.FetchProducts(ctx, externalID)
	if err != nil {
		return nil, err
	}
	products := ingestion.MapProducts(raw)
	if products == nil {
		products = []project.Product{}
	}
	return products, nil
}

// Refresh fetches the remote products of a project and compares them with
// the stored ones. Differences are staged; nothing is written. An empty
// remote list never replaces stored products.
func (s *Service) Refresh(ctx context.Context, projectID uint) (*RefreshResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconcile", "refresh", telemetry.SpanAttrProjectID, projectID)
	defer span.End()

	p, err := s.gateway.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	external, err := s.FetchProductsFromExternal(ctx, p.Number)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to fetch remote products", zap.String("project_number", p.Number), zap.Error(err))
		return nil, err
	}
	local, err := s.gateway.GetProducts(ctx, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(external) == 0 && len(local) > 0 {
		err := shared.NewTransportError("project "+p.Number, integration.ErrRemoteProductsMissing)
		telemetry.RecordError(span, err)
		s.logger.Warn("Remote returned no products, keeping stored products",
			zap.String("project_number", p.Number),
			zap.Int("local", len(local)))
		return nil, err
	}

	result := &RefreshResult{
		ProjectID:     projectID,
		LocalCount:    len(local),
		ExternalCount: len(external),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if Equal(external, local) {
		delete(s.staged, projectID)
		result.Status = StatusNoChanges
	} else {
		s.staged[projectID] = &Staged{ProjectID: projectID, Products: external, StagedAt: time.Now()}
		result.Status = StatusChangesStaged
		result.CanConfirm = true
	}

	s.metrics.RecordRefresh(ctx, string(result.Status))
	s.logger.Info("Products refreshed",
		zap.String("project_number", p.Number),
		zap.String("status", string(result.Status)),
		zap.Int("local", result.LocalCount),
		zap.Int("external", result.ExternalCount))
	return result, nil
}

// Confirm persists the staged products of a project with replace-all
// semantics and returns how many were written
func (s *Service) Confirm(ctx context.Context, projectID uint) (int, error) {
	s.mu.Lock()
	staged, ok := s.staged[projectID]
	s.mu.Unlock()
	if !ok {
		return 0, shared.NewDomainError(shared.CodeInvalidState, "no staged products to confirm")
	}

	if err := s.gateway.ReplaceProducts(ctx, projectID, staged.Products); err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.staged[projectID] == staged {
		delete(s.staged, projectID)
	}
	s.mu.Unlock()
	s.metrics.RecordConfirm(ctx, len(staged.Products))
	return len(staged.Products), nil
}

// Discard drops the staged products of a project
func (s *Service) Discard(projectID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.staged[projectID]
	delete(s.staged, projectID)
	return ok
}

// Staged returns the staged products of a project
func (s *Service) Staged(projectID uint) (*Staged, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged, ok := s.staged[projectID]
	return staged, ok
}
