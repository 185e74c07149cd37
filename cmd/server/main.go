package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/application/lookup"
	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/cache"
	"github.com/wmsexpress/backend/internal/infrastructure/config"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/infrastructure/persistence"
	"github.com/wmsexpress/backend/internal/infrastructure/seed"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
	"github.com/wmsexpress/backend/internal/interfaces/http/handler"
	"github.com/wmsexpress/backend/internal/interfaces/http/middleware"
	"github.com/wmsexpress/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	}

	// Bootstrap logger, replaced below once the OTEL log bridge is known
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	exporter := telemetry.Exporter{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	logsExporter := exporter
	logsExporter.Enabled = exporter.Enabled && cfg.Telemetry.LogsEnabled

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{Exporter: logsExporter}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL log provider", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		log, err = logger.New(logCfg, logsProvider.Core(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting WMS lookup backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Exporter:      exporter,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	if cfg.Telemetry.SpanProfilesEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
		ProfileAlloc:    true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Exporter:       exporter,
		ExportInterval: cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	lookupMetrics, err := telemetry.NewLookupMetrics(meterProvider.Meter("wms.lookup"))
	if err != nil {
		log.Fatal("Failed to create lookup metrics", zap.Error(err))
	}

	// Catalog: embedded seed, a seed file, or the database
	dataset, db, err := loadDataset(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to load catalog", zap.Error(err))
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
	}

	catalog, err := warehouse.NewCatalog(dataset)
	if err != nil {
		log.Fatal("Catalog is invalid", zap.Error(err))
	}
	clientCount := len(catalog.ListClients()) - 1
	lookupMetrics.RecordCatalogSize(ctx, clientCount, cfg.Catalog.Source)
	log.Info("Catalog loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("clients", clientCount),
		zap.Int("receipts", len(catalog.ReceiptsFor(warehouse.AllClientsID))),
	)

	// Receipt details, optionally cached in Redis
	var detailProvider receipt.DetailProvider = receipt.NewStaticDetailProvider(catalog)
	detailProvider, err = cache.NewDetailProviderFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithMetrics(lookupMetrics),
	).CreateProvider(ctx, detailProvider)
	if err != nil {
		log.Fatal("Failed to create receipt detail cache", zap.Error(err))
	}
	if closer, ok := detailProvider.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("Error closing receipt detail cache", zap.Error(err))
			}
		}()
	}

	var healthChecks []handler.HealthCheck
	if db != nil {
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "database", Ping: db.Ping})
	}

	// Application services and handlers
	lookupService := lookup.NewService(catalog, cfg.Scan.AreaRatio, lookupMetrics)
	receiptService := lookup.NewReceiptService(catalog, detailProvider, lookupMetrics)

	handlers := router.Handlers{
		Lookup:  handler.NewLookupHandler(lookupService),
		Receipt: handler.NewReceiptHandler(receiptService),
		System:  handler.NewSystemHandler(catalog, version, healthChecks...),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	// Middleware order:
	// 1. RequestID so every later layer can log and echo it
	// 2. Logging and recovery
	// 3. Security headers, CORS and body size
	// 4. Rate limiting (if enabled)
	// 5. Tracing, span enrichment and HTTP metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = tracerProvider.IsEnabled()
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	var httpMetrics *telemetry.HTTPMetrics
	if meterProvider.IsEnabled() {
		if httpMetrics, err = telemetry.NewHTTPMetrics(meterProvider.Meter("http.server")); err != nil {
			log.Fatal("Failed to create HTTP metrics", zap.Error(err))
		}
	}
	engine.Use(middleware.HTTPMetrics(httpMetrics))

	router.NewRouter(engine).RegisterAPI(handlers).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, logsProvider)
	log.Info("Server exited gracefully")
}

// loadDataset returns the catalog dataset for the configured source. The
// database handle is non-nil only for the database source and must be closed
// by the caller.
func loadDataset(ctx context.Context, cfg *config.Config, log *zap.Logger) (warehouse.Dataset, *persistence.Database, error) {
	if cfg.Catalog.Source != config.CatalogSourceDatabase {
		if cfg.Catalog.SeedPath != "" {
			log.Info("Loading catalog seed file", zap.String("path", cfg.Catalog.SeedPath))
			ds, err := seed.LoadFile(cfg.Catalog.SeedPath)
			return ds, nil, err
		}
		ds, err := seed.Builtin()
		return ds, nil, err
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracing.DBSystem = telemetry.DBSystemFor(cfg.Database.Driver)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database,
		[]persistence.Plugin{telemetry.NewDBTracingPlugin(tracing, log)},
		persistence.WithLogger(gormLog),
	)
	if err != nil {
		return warehouse.Dataset{}, nil, err
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
	db.LogStats(log)

	ds, err := persistence.NewCatalogRepository(db.DB).Load(ctx)
	if err != nil {
		_ = db.Close()
		return warehouse.Dataset{}, nil, err
	}
	return ds, db, nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(ctx context.Context, log *zap.Logger, providers ...shutdowner) {
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.Error(err))
		}
	}
}

