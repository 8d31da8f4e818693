package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/factuurdesk/backend/internal/application/invoicedoc"
	"github.com/factuurdesk/backend/internal/application/preview"
	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/infrastructure/cache"
	"github.com/factuurdesk/backend/internal/infrastructure/config"
	"github.com/factuurdesk/backend/internal/infrastructure/logger"
	"github.com/factuurdesk/backend/internal/infrastructure/migration"
	"github.com/factuurdesk/backend/internal/infrastructure/persistence"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/factuurdesk/backend/internal/infrastructure/scheduler"
	"github.com/factuurdesk/backend/internal/infrastructure/storage"
	"github.com/factuurdesk/backend/internal/infrastructure/telemetry"
	"github.com/factuurdesk/backend/internal/interfaces/http/handler"
	"github.com/factuurdesk/backend/internal/interfaces/http/middleware"
	"github.com/factuurdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	shutdownTimeout   = 30 * time.Second
	slowQueryLimit    = 200 * time.Millisecond
	maxRequestBody    = 1 << 20
	renderMeterName   = "factuurdesk/rendering"
	defaultAPIVersion = "v1"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Apply pending database migrations before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	}

	// Bootstrap logger, replaced once the OTLP log exporter is known
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logs.IsEnabled() {
		exported, err := logger.New(logCfg, providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			log.Fatal("Failed to attach log exporter", zap.Error(err))
		}
		log = exported
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting document service",
		zap.String("version", Version),
	)

	renderMetrics, err := providers.RenderMetrics(renderMeterName)
	if err != nil {
		log.Fatal("Failed to create render metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:  logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), slowQueryLimit),
		Tracing: cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if migrate {
		if err := applyMigrations(&cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)

	cacheStore := cache.NewStore(cfg.Redis, log)
	templates := cache.NewTemplateCache(templateRepo, cacheStore, cfg.Redis.TemplateTTL, log)

	// Rendering
	backend, err := rendering.NewChromedpBackend(&rendering.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.ChromeRemoteURL,
		NoSandbox:      cfg.Render.ChromeNoSandbox,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to start browser backend", zap.Error(err))
	}

	markup, err := fallbackTemplate(cfg.Render.DefaultTemplatePath)
	if err != nil {
		log.Fatal("Failed to read fallback template",
			zap.String("path", cfg.Render.DefaultTemplatePath),
			zap.Error(err),
		)
	}
	formatter := rendering.Formatter{
		DateLayout:     cfg.Render.DateLayout,
		CurrencySymbol: cfg.Render.CurrencySymbol,
	}
	if formatter.DateLayout == "" {
		formatter.DateLayout = rendering.DateLayoutForLocale(cfg.Render.Locale)
	}

	pipeline := rendering.NewPipeline(
		rendering.NewEngine(rendering.WithDefaultTemplate(markup), rendering.WithFormatter(formatter)),
		backend,
		rendering.NewAssembler(),
		rendering.PipelineConfig{
			SettleDelay:     cfg.Render.SettleDelay,
			MinCaptureBytes: cfg.Render.MinCaptureBytes,
			DownloadScale:   cfg.Render.DownloadScale,
			PreviewScale:    cfg.Render.PreviewScale,
			Logger:          log,
		},
	)

	// Application services
	loader := invoicedoc.NewLoader(
		invoiceRepo,
		templates,
		invoicedoc.StaticCompany{Profile: invoicing.CompanyProfile(cfg.Company)},
		cfg.Preview.LoadTimeout,
		log,
	)

	docOpts := []invoicedoc.Option{invoicedoc.WithMetrics(renderMetrics)}
	archive, err := storage.NewArchive(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document archive", zap.Error(err))
	}
	if archive != nil {
		docOpts = append(docOpts, invoicedoc.WithArchive(archive))
	}
	retention := startRetention(ctx, cfg.Storage, archive, log)
	documents := invoicedoc.NewService(invoiceRepo, loader, pipeline, log, docOpts...)

	negotiator := preview.NewNegotiator(invoiceRepo, loader, pipeline, preview.Config{
		InlineSizeLimit: cfg.Preview.InlineSizeLimit,
		SessionTTL:      cfg.Preview.SessionTTL,
		RunTimeout:      cfg.Preview.LoadTimeout + cfg.Render.Timeout,
		Formatter:       formatter,
	}, log, preview.WithMetrics(renderMetrics))

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	engine.Use(middleware.RequestID(), middleware.OrganizationContext())
	if providers.Tracer.IsEnabled() {
		engine.Use(
			middleware.TracingWithConfig(middleware.TracingConfig{
				ServiceName: cfg.Telemetry.ServiceName,
				Enabled:     true,
			}),
			middleware.TracingAttributes(),
			middleware.SpanErrorMarker(),
		)
	}
	engine.Use(
		middleware.HTTPMetrics(providers.Meter),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecureWithConfig(security),
		middleware.CORS(cfg.HTTP),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version,
		handler.HealthCheck{
			Name:  "database",
			Check: db.Ping,
		},
		handler.HealthCheck{
			Name: "browser",
			Check: func(ctx context.Context) error {
				_, err := backend.StagedCount(ctx)
				return err
			},
		},
		handler.HealthCheck{
			Name:     "cache",
			Optional: true,
			Check:    cacheCheck(cacheStore),
		},
	)
	engine.GET("/health", systemHandler.Health)

	var renderLimits []gin.HandlerFunc
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		renderLimits = append(renderLimits, middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion(defaultAPIVersion),
		router.WithMiddleware(middleware.BodyLimit(maxRequestBody)),
	)
	previewHandler := handler.NewPreviewHandler(negotiator, r.BasePath())
	groups := []*router.DomainGroup{
		handler.DocumentRoutes(handler.NewDocumentHandler(documents), previewHandler, renderLimits...),
		handler.PreviewRoutes(previewHandler),
		handler.SystemRoutes(systemHandler),
	}
	for _, g := range groups {
		r.Register(g)
		for _, route := range g.Routes() {
			log.Debug("Route registered",
				zap.String("group", g.Name()),
				zap.String("method", route.Method),
				zap.String("path", r.BasePath()+route.Path),
			)
		}
	}
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if limiter != nil {
		limiter.Stop()
	}
	if retention != nil {
		if err := retention.Stop(shutdownCtx); err != nil {
			log.Warn("Retention scheduler did not stop", zap.Error(err))
		}
	}
	if err := negotiator.Close(); err != nil {
		log.Warn("Preview sessions did not drain", zap.Error(err))
	}
	if err := backend.Close(); err != nil {
		log.Warn("Failed to close browser backend", zap.Error(err))
	}
	if err := cacheStore.Close(); err != nil {
		log.Warn("Failed to close cache", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// fallbackTemplate returns the configured template file or the built-in one
func fallbackTemplate(path string) (string, error) {
	if path == "" {
		return rendering.DefaultInvoiceTemplate(), nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// startRetention sweeps the filesystem archive when a retention is configured
func startRetention(ctx context.Context, cfg config.StorageConfig, archive rendering.DocumentSink, log *zap.Logger) *scheduler.RetentionScheduler {
	sweeper, ok := archive.(scheduler.Sweeper)
	if !ok || cfg.Retention <= 0 {
		return nil
	}
	retention, err := scheduler.NewRetentionScheduler(scheduler.RetentionConfig{
		Retention: cfg.Retention,
		Interval:  cfg.SweepInterval,
	}, sweeper, log)
	if err != nil {
		log.Fatal("Invalid retention configuration", zap.Error(err))
	}
	if err := retention.Start(ctx); err != nil {
		log.Fatal("Failed to start retention scheduler", zap.Error(err))
	}
	return retention
}

func applyMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	m, err := migration.Open(cfg.DSN(), "", log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// cacheCheck round-trips a probe key; a miss still proves the store answers
func cacheCheck(store cache.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, "health:probe")
		if err == nil || errors.Is(err, cache.ErrMiss) {
			return nil
		}
		return err
	}
}
