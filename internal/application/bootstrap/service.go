// Package bootstrap activates a project: it prepares the project store,
// decides whether remote details must be ingested and loads the enriched
// project.
package bootstrap

import (
	"context"
	"strings"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/ingestion"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the part of the persistence gateway activation needs
type Gateway interface {
	ingestion.Store
	ProjectStoreExists(p *project.Project) bool
	LoadProjectDetail(ctx context.Context, p *project.Project) (*project.Detail, error)
}

// ActivationResult describes one activation
type ActivationResult struct {
	ActivationID uuid.UUID       `json:"activation_id"`
	Project      project.Project `json:"project"`
	Detail       *project.Detail `json:"detail,omitempty"`
	States       []State         `json:"states"`
	Warnings     []string        `json:"warnings,omitempty"`
	StoreExisted bool            `json:"store_existed"`
	Ingested     bool            `json:"ingested"`
}

func (r *ActivationResult) visit(s State) {
	r.States = append(r.States, s)
}

func (r *ActivationResult) warn(msg string, err error) {
	r.Warnings = append(r.Warnings, msg+": "+err.Error())
}

// Service orchestrates project activation
type Service struct {
	gateway   Gateway
	importers integration.ImporterFactory
	settings  config.Settings
	events    shared.EventPublisher
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
}

// NewService creates a new bootstrap service
func NewService(gateway Gateway, importers integration.ImporterFactory, settings config.Settings, events shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		gateway:   gateway,
		importers: importers,
		settings:  settings,
		events:    events,
		logger:    logger.Named("bootstrap"),
	}
}

// SetSyncMetrics sets the collector ingestion runs are recorded on
func (s *Service) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// EnsureProjectDB creates or migrates the store of p
func (s *Service) EnsureProjectDB(ctx context.Context, p *project.Project) error {
	_, err := s.gateway.PrepareProjectDB(ctx, p)
	return err
}

// IngestProjectDetailsIfNeeded ingests the remote details of p when settings
// carry credentials. It reports whether ingestion ran. The external id is
// taken from p, or looked up by number in the remote project list.
func (s *Service) IngestProjectDetailsIfNeeded(ctx context.Context, p *project.Project, settings config.Settings) (bool, error) {
	if !settings.HasCredentials() {
		return false, nil
	}
	importer, err := s.importers(settings.APIKey(), settings.BaseURL())
	if err != nil {
		return false, shared.WrapDomainError(shared.CodeConfiguration, "failed to create importer", err)
	}

	externalID, err := resolveExternalID(ctx, importer, p)
	if err != nil {
		return false, err
	}
	ingest := ingestion.NewService(importer, s.gateway, s.logger)
	ingest.SetSyncMetrics(s.metrics)
	if _, err := ingest.Ingest(ctx, externalID); err != nil {
		return false, err
	}
	return true, nil
}

func resolveExternalID(ctx context.Context, importer integration.ProjectImporter, p *project.Project) (string, error) {
	if id := strings.TrimSpace(p.ExternalID); id != "" {
		return id, nil
	}
	remote, err := importer.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	for _, rp := range remote {
		if strings.EqualFold(strings.TrimSpace(rp.Number), strings.TrimSpace(p.Number)) && rp.ID != "" {
			return rp.ID, nil
		}
	}
	return "", shared.NewTransportError("project "+p.Number, integration.ErrRemoteProjectNotFound)
}

// LoadEnrichedProject reads the enriched view of p from its store
func (s *Service) LoadEnrichedProject(ctx context.Context, p *project.Project) (*project.Detail, error) {
	return s.gateway.LoadProjectDetail(ctx, p)
}

// Activate runs the activation state machine for p and publishes exactly one
// ProjectOpened event carrying the best available view. Failures along the
// way become warnings; the original project is the fallback.
func (s *Service) Activate(ctx context.Context, p *project.Project) (*ActivationResult, error) {
	if p == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "project is required")
	}

	result := &ActivationResult{ActivationID: uuid.New(), Project: *p}
	ctx, log := logger.WithProjectNumber(ctx, s.logger, p.Number)
	log = log.With(zap.String("activation_id", result.ActivationID.String()))
	ctx, span := telemetry.StartServiceSpan(ctx, "bootstrap", "activate",
		telemetry.SpanAttrProjectNumber, p.Number,
		telemetry.SpanAttrProjectID, int(p.ID))
	defer span.End()

	result.visit(StateStart)

	// must be checked before the store is created
	result.StoreExisted = s.gateway.ProjectStoreExists(p)

	result.visit(StateEnsureStore)
	if err := s.EnsureProjectDB(ctx, p); err != nil {
		log.Warn("Failed to prepare project store", zap.Error(err))
		result.warn("prepare project store", err)
	}

	load := true
	if result.StoreExisted {
		result.visit(StateAlreadyExisted)
	} else {
		result.visit(StateStoreIsNew)
		result.visit(StateCheckCredentials)
		if s.settings.HasCredentials() {
			result.visit(StateHasCredentials)
			result.visit(StateIngest)
			ingested, err := s.IngestProjectDetailsIfNeeded(ctx, p, s.settings)
			if err != nil {
				log.Warn("Ingestion failed", zap.Error(err))
				result.warn("ingest project details", err)
				telemetry.RecordError(span, err)
			}
			result.Ingested = ingested
		} else {
			result.visit(StateNoCredentials)
			load = false
		}
	}

	if load {
		result.visit(StateLoadFromStore)
		detail, err := s.LoadEnrichedProject(ctx, p)
		if err != nil {
			log.Warn("Failed to load project from store", zap.Error(err))
			result.warn("load project from store", err)
		} else {
			result.Detail = detail
			result.Project = detail.Project
		}
	}
	result.visit(StateDone)

	event := project.NewProjectOpenedEvent(result.Project, result.Detail, result.Warnings)
	if s.events != nil {
		if err := s.events.Publish(ctx, event); err != nil {
			log.Error("Failed to publish project opened event", zap.Error(err))
		}
	}

	telemetry.AddEvent(span, "activated", "store_existed", result.StoreExisted, "ingested", result.Ingested)
	log.Info("Project activated",
		zap.Bool("store_existed", result.StoreExisted),
		zap.Bool("ingested", result.Ingested),
		zap.Bool("enriched", result.Detail != nil),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}
