// Package ingestion pulls one project's details from the remote system into
// its project store.
//
// Ingestion is the authoritative path: errors propagate to the caller. It is
// idempotent on project identity and on locations by name. Products are
// appended on every run; replacing them is the reconciliation path's job.
package ingestion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of the persistence gateway ingestion needs
type Store interface {
	PrepareProjectDB(ctx context.Context, p *project.Project) (string, error)
	OpenProjectUnitOfWork(ctx context.Context, p *project.Project) (project.UnitOfWork, error)
}

// Diagnostics describes one ingestion run
type Diagnostics struct {
	RunID            uuid.UUID              `json:"run_id"`
	ExternalID       string                 `json:"external_id"`
	StorePath        string                 `json:"store_path"`
	RawProject       integration.RawPayload `json:"raw_project,omitempty"`
	RawProducts      integration.RawPayload `json:"raw_products,omitempty"`
	LocationsCreated int                    `json:"locations_created"`
	ProductsInserted int                    `json:"products_inserted"`
	StartedAt        time.Time              `json:"started_at"`
	Duration         time.Duration          `json:"duration"`
}

// IngestResult is the outcome of a successful run
type IngestResult struct {
	Project     *project.Project `json:"project"`
	Diagnostics Diagnostics      `json:"diagnostics"`
}

// Service ingests remote project details
type Service struct {
	importer integration.ProjectImporter
	store    Store
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
}

// NewService creates a new ingestion service
func NewService(importer integration.ProjectImporter, store Store, logger *zap.Logger) *Service {
	return &Service{
		importer: importer,
		store:    store,
		logger:   logger.Named("ingestion"),
	}
}

// SetSyncMetrics sets the collector ingestion runs are recorded on
func (s *Service) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// Ingest fetches the remote project and its products, prepares the project
// store and writes project, locations and products in one unit of work
func (s *Service) Ingest(ctx context.Context, externalID string) (*IngestResult, error) {
	started := time.Now()
	result, err := s.ingest(ctx, externalID)
	products, locations := 0, 0
	if result != nil {
		products = result.Diagnostics.ProductsInserted
		locations = result.Diagnostics.LocationsCreated
	}
	s.metrics.RecordIngest(ctx, products, locations, time.Since(started), err)
	return result, err
}

func (s *Service) ingest(ctx context.Context, externalID string) (*IngestResult, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "external project id is required")
	}

	diag := Diagnostics{RunID: uuid.New(), ExternalID: externalID, StartedAt: time.Now()}
	ctx, log := logger.WithRunID(ctx, s.logger, diag.RunID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "ingestion", "ingest",
		telemetry.SpanAttrExternalID, externalID,
		telemetry.SpanAttrRunID, diag.RunID.String())
	defer span.End()

	rawProject, err := s.importer.FetchProject(ctx, externalID)
	if err != nil {
		log.Error("Failed to fetch remote project", zap.String("external_id", externalID), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	rawProducts, err := s.importer.FetchProducts(ctx, externalID)
	if err != nil {
		log.Error("Failed to fetch remote products", zap.String("external_id", externalID), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	diag.RawProject = rawProject
	diag.RawProducts = rawProducts

	mapped := MapProject(rawProject)
	products := MapProducts(rawProducts)
	p := &mapped.Project
	if p.Number == "" {
		err := shared.NewDomainError(shared.CodeInvalidInput, "remote project "+externalID+" has no number")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if p.ExternalID == "" {
		p.ExternalID = externalID
	}
	ctx, log = logger.WithProjectNumber(ctx, log, p.Number)
	telemetry.SetAttributes(span, telemetry.SpanAttrProjectNumber, p.Number)

	path, err := s.store.PrepareProjectDB(ctx, p)
	diag.StorePath = path
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	uow, err := s.store.OpenProjectUnitOfWork(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if cerr := uow.Close(); cerr != nil {
			log.Warn("Failed to close project store", zap.Error(cerr))
		}
	}()

	var stored *project.Project
	err = uow.Execute(ctx, func(ctx context.Context, repos project.Repositories) error {
		var err error
		stored, err = repos.Projects.UpsertByNumber(ctx, p)
		if err != nil {
			return err
		}

		diag.LocationsCreated = 0
		for _, name := range mapped.Locations {
			_, err := repos.Locations.FindByName(ctx, stored.ID, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if err := repos.Locations.Create(ctx, &project.Location{ProjectID: stored.ID, Name: name}); err != nil {
				return err
			}
			diag.LocationsCreated++
		}

		resolver := project.NewLocationResolver(repos.Locations, stored.ID)
		diag.ProductsInserted = 0
		for i := range products {
			product := products[i]
			product.ProjectID = stored.ID
			locationID, err := resolver.Resolve(ctx, product.LocationName)
			if err != nil {
				return err
			}
			product.LocationID = locationID
			if err := repos.Products.Create(ctx, &product); err != nil {
				return err
			}
			diag.ProductsInserted++
		}
		return nil
	})
	if err != nil {
		log.Error("Ingestion rolled back", zap.Error(err))
		telemetry.RecordError(span, err)
		if shared.HasCode(err, shared.CodeInvalidInput) {
			return nil, err
		}
		return nil, shared.NewPersistenceError("failed to write ingested project", err)
	}

	diag.Duration = time.Since(diag.StartedAt)
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, diag.ProductsInserted)
	log.Info("Project ingested",
		zap.Int("locations_created", diag.LocationsCreated),
		zap.Int("products_inserted", diag.ProductsInserted),
		zap.Duration("duration", diag.Duration))
	return &IngestResult{Project: stored, Diagnostics: diag}, nil
}
