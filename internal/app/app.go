package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pricescope/internal/config"
	"pricescope/internal/dataprocessing"
	"pricescope/internal/document"
	apierrors "pricescope/internal/errors"
	"pricescope/internal/infrastructure"
	customMiddleware "pricescope/internal/middleware"
	"pricescope/internal/services"
	"pricescope/internal/storage"
	handlers "pricescope/internal/transport/http"
	"pricescope/pkg/contracts"
)

// AppName is the display name of the service
const AppName = "PriceScope"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ReportMetrics
	Source        storage.RecordSource
	ReportService *services.ReportService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads configuration and logging from the environment and
// builds the application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New wires every component from cfg. The record source is opened here and
// released by Stop.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("build", contracts.GetFullVersionString()),
		slog.String("store_driver", cfg.Store.Driver))

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateReportMetrics(otelProviders.Meter)
	if err != nil {
		otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create report metrics: %w", err)
	}

	source, err := storage.Open(ctx, StoreOptions(cfg.Store), logger)
	if err != nil {
		otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open record source: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Source:        source,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	app.ReportService = services.NewReportService(source, nil, ReportOptions(cfg.Report),
		otelProviders.Tracer, metrics, logger)

	app.setupRouter()
	app.createServer()
	return app, nil
}

// StoreOptions maps the store configuration to record source options
func StoreOptions(cfg config.StoreConfig) storage.Options {
	return storage.Options{
		Driver: cfg.Driver,
		DSN:    cfg.DSN,
		Table:  cfg.Table,
		Limit:  cfg.Limit,
	}
}

// ReportOptions maps the report configuration to service options
func ReportOptions(cfg config.ReportConfig) services.ReportOptions {
	doc := document.DefaultConfig()
	doc.PageSize = cfg.PageSize
	doc.PreviewLimit = cfg.PreviewLimit
	doc.PriceBand = cfg.PriceBand
	doc.LogoPath = cfg.LogoPath
	doc.CopyrightHolder = cfg.CopyrightHolder
	doc.Compress = cfg.Compress

	normalize := dataprocessing.DefaultNormalizeOptions()
	normalize.MaxRecords = cfg.MaxRecords

	return services.ReportOptions{
		Normalize:   normalize,
		Document:    doc,
		IncludeXLSX: cfg.IncludeXLSX,
		CSVBOM:      cfg.CSVBOM,
	}
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID -> RealIP -> OTel -> Logger -> Recoverer -> Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.readinessProbes(), a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)

		r.Group(func(r chi.Router) {
			if a.Config.Security.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(
					a.Config.Security.RateLimit.RPS,
					a.Config.Security.RateLimit.Burst,
					a.ErrorHandler,
					a.Logger,
				).Handler)
			}

			validator := customMiddleware.NewRequestValidator(a.Config.Server.MaxBodyBytes)
			reportHandler := handlers.NewReportHandler(a.ReportService, validator, a.Logger, a.ErrorHandler)
			r.Mount("/reports", reportHandler.Routes())
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) readinessProbes() map[string]handlers.ReadinessProbe {
	probes := make(map[string]handlers.ReadinessProbe)
	if p, ok := a.Source.(storage.Pinger); ok {
		probes["record_source"] = p
	}
	return probes
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Server error")
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("record source close error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
