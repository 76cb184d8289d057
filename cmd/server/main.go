package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/bootstrap"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/callout"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/application/reconcile"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/config"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/event"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/innergy"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/persistence"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/telemetry"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/handler"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/middleware"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting spec manager",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("has_credentials", cfg.Settings().HasCredentials()),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    time.Duration(cfg.Telemetry.MetricsInterval) * time.Second,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()
	syncMetrics, err := telemetry.NewSyncMetrics(mp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Catalog, store locator and the external importer factory
	importers := innergy.NewFactory(cfg.Innergy.TimeoutSeconds, log)
	gateway, err := persistence.OpenGateway(ctx, cfg, importers, log)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Error("Error closing catalog", zap.Error(err))
		}
	}()
	gateway.SetSyncMetrics(syncMetrics)
	log.Info("Catalog opened", zap.String("stores_dir", cfg.Stores.Dir))

	// Project opened notifications
	bus := event.NewInMemoryEventBus(log)
	recent := event.NewRecentProjects(10)
	bus.Subscribe(event.NewLoggingHandler(log))
	bus.Subscribe(recent, project.EventTypeProjectOpened)

	settings := cfg.Settings()
	bootstrapService := bootstrap.NewService(gateway, importers, settings, bus, log)
	bootstrapService.SetSyncMetrics(syncMetrics)
	calloutService := callout.NewService(gateway, log)
	reconcileService := reconcile.NewService(gateway, importers, settings, log)
	reconcileService.SetSyncMetrics(syncMetrics)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	// Middleware order: recovery, request logging, tracing, headers, CORS, body limit
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	systemHandler := handler.NewSystemHandler(gateway)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	projectRoutes := router.NewDomainGroup("projects", "/projects")
	handler.NewProjectHandler(gateway, bootstrapService, recent).RegisterRoutes(projectRoutes)
	handler.NewCalloutHandler(calloutService).RegisterRoutes(projectRoutes)
	handler.NewProductHandler(reconcileService).RegisterRoutes(projectRoutes)
	r.Register(projectRoutes)

	systemRoutes := router.NewDomainGroup("system", "")
	systemRoutes.GET("/health", systemHandler.Health)
	r.Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
