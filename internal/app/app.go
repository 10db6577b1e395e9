// Package app wires configuration, logging, metrics, the transaction source
// and the HTTP server into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/InitCore006/SeedSync-sub001/internal/config"
	"github.com/InitCore006/SeedSync-sub001/internal/infrastructure"
	customMiddleware "github.com/InitCore006/SeedSync-sub001/internal/middleware"
	"github.com/InitCore006/SeedSync-sub001/internal/services"
	"github.com/InitCore006/SeedSync-sub001/internal/source"
	handlers "github.com/InitCore006/SeedSync-sub001/internal/transport/http"
)

const (
	Version = "1.2.0"
	AppName = "SeedSync Market Insights"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = ""

// Application is the composed service container.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Insights      *services.InsightService
	Health        *services.HealthService
}

// New builds the application from configuration and the data directory.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.DataDir()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	var metrics *infrastructure.BusinessMetrics
	if otelProviders.Meter != nil {
		metrics, err = infrastructure.CreateBusinessMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
	}

	src, err := BuildSource(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("build transaction source: %w", err)
	}
	logger.Info("transaction source configured", slog.String("source", src.Name()))

	insights := services.NewInsightService(src, cfg.Report, metrics, logger)
	health := services.NewHealthService(Version, BuildTime, src, insights, logger)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Insights:      insights,
		Health:        health,
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

// BuildSource assembles the transaction source for a data directory: every
// workbook plus the CSV exports, concatenated. A directory with neither still
// gets a CSV source so fetch errors surface through health and reports.
func BuildSource(dataDir string) (source.TransactionSource, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var sources []source.TransactionSource
	var workbooks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			workbooks = append(workbooks, filepath.Join(dataDir, e.Name()))
		}
	}
	sort.Strings(workbooks)
	for _, wb := range workbooks {
		sources = append(sources, source.NewExcelSource(wb))
	}

	csvSrc := source.NewCSVSource(dataDir)
	if len(sources) == 0 {
		return csvSrc, nil
	}
	if hasCSVExports(dataDir) {
		sources = append(sources, csvSrc)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return &source.MultiSource{Sources: sources}, nil
}

func hasCSVExports(dataDir string) bool {
	for _, name := range []string{source.OrdersFile, source.LotsFile, source.BatchesFile} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
			return true
		}
	}
	return false
}

// setupRouter configures the middleware chain and routes. Ordering:
// RequestID, RealIP, metrics, logger, recoverer, security, CORS, rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.HTTPMetrics(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{"X-Request-ID"},
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))

			handlers.NewHealthHandler(a.Health, a.Logger).RegisterRoutes(r)
			handlers.NewReportHandler(a.Insights, a.Logger).RegisterRoutes(r)
		})
	})

	// Prometheus endpoint stays outside the API middleware group.
	handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).RegisterRoutes(r)

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.ListenAddr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start begins serving. Server errors cancel the context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "http server starting",
		slog.String("addr", a.Server.Addr))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully shuts the server and telemetry down.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()
	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run serves until interrupted, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
