package cli

import (
	"context"
	"errors"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/bootstrap"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/reconcile"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/integration"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/event"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/innergy"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// App is the set of services one CLI invocation works with
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Gateway   *persistence.Gateway
	Bootstrap *bootstrap.Service
	Reconcile *reconcile.Service
	Meter     *telemetry.MeterProvider
}

// OpenApp loads configuration and opens the catalog
func OpenApp(ctx context.Context, opts *RootOptions) (*App, error) {
	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	output := cfg.Log.Output
	if output == "stdout" {
		// stdout carries command output
		output = "stderr"
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     cfg.Log.Format,
		Output:     output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, innergy.NewFactory(cfg.Innergy.TimeoutSeconds, log), log)
}

// NewApp wires the services on top of an opened catalog
func NewApp(ctx context.Context, cfg *config.Config, importers integration.ImporterFactory, log *zap.Logger) (*App, error) {
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    time.Duration(cfg.Telemetry.MetricsInterval) * time.Second,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}
	syncMetrics, err := telemetry.NewSyncMetrics(mp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	gateway, err := persistence.OpenGateway(ctx, cfg, importers, log)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	gateway.SetSyncMetrics(syncMetrics)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLoggingHandler(log))

	settings := cfg.Settings()
	app := &App{
		Config:    cfg,
		Logger:    log,
		Gateway:   gateway,
		Bootstrap: bootstrap.NewService(gateway, importers, settings, bus, log),
		Reconcile: reconcile.NewService(gateway, importers, settings, log),
		Meter:     mp,
	}
	app.Bootstrap.SetSyncMetrics(syncMetrics)
	app.Reconcile.SetSyncMetrics(syncMetrics)
	return app, nil
}

// Close flushes metrics, releases the catalog and flushes the logger
func (a *App) Close() {
	if err := a.Meter.Shutdown(context.Background()); err != nil {
		a.Logger.Warn("Error flushing metrics", zap.Error(err))
	}
	if err := a.Gateway.Close(); err != nil {
		a.Logger.Warn("Error closing catalog", zap.Error(err))
	}
	_ = logger.Sync(a.Logger)
}

// exitFor maps a service error to an exit code. Missing configuration and
// unknown projects are command errors; everything else is a failure.
func exitFor(message string, err error) error {
	if shared.IsConfigurationError(err) || errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidInput) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}
