package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	reportapp "github.com/shopfront/backend/internal/application/report"
	salesapp "github.com/shopfront/backend/internal/application/sales"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/metrics"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

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
		Fields: map[string]string{
			"service": cfg.App.Name,
			"env":     cfg.App.Env,
		},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shopfront backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	if closer, ok := idempotencyStore.(io.Closer); ok {
		defer closer.Close()
	}

	images, memoryImages := newImageStorage(ctx, cfg, log)

	eventBus := event.NewInMemoryEventBus(log)
	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(cfg.Metrics.Namespace)
		eventBus.Subscribe(appMetrics)
		if sqlDB, err := db.SQL(); err == nil {
			if err := appMetrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
				log.Warn("Failed to register database pool metrics", zap.Error(err))
			}
		}
	}
	if cfg.Kafka.Enabled {
		forwarder := event.NewKafkaForwarder(event.NewKafkaWriter(cfg.Kafka), cfg.Kafka, log)
		eventBus.Subscribe(forwarder)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka writer", zap.Error(err))
			}
		}()
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("sales_topic", cfg.Kafka.SalesTopic),
			zap.String("catalog_topic", cfg.Kafka.CatalogTopic),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	productRepo := persistence.NewGormProductRepository(db.DB)
	likeRepo := persistence.NewGormLikeRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	salesReportRepo := persistence.NewGormSalesReportRepository(db.DB)

	productService := catalogapp.NewProductService(productRepo, likeRepo, log)
	productService.SetEventPublisher(eventBus)
	productService.SetQueryTimeout(cfg.Database.QueryTimeout)
	if images != nil {
		productService.SetImageStorage(images)
	}

	orderService := salesapp.NewOrderService(persistence.NewGormTransactionScope(db.DB), saleRepo, log)
	orderService.SetEventPublisher(eventBus)
	orderService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	orderService.SetQueryTimeout(cfg.Database.QueryTimeout)

	reportService := reportapp.NewReportService(salesReportRepo, log)
	reportService.SetLocation(cfg.Report.Location())
	reportService.SetQueryTimeout(cfg.Database.QueryTimeout)

	healthHandler := handler.NewHealthHandler(version, log)
	healthHandler.AddCheck("database", db.Ping)
	if pinger, ok := idempotencyStore.(interface{ Ping(context.Context) error }); ok {
		healthHandler.AddCheck("redis", pinger.Ping)
	}

	handlers := router.Handlers{
		Products: handler.NewProductHandler(productService, reportService, log),
		Sales:    handler.NewSaleHandler(orderService, log),
		Reports:  handler.NewReportHandler(reportService, log),
		Health:   healthHandler,
	}
	if memoryImages != nil {
		handlers.Images = handler.NewImageHandler(memoryImages, log)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	deps := router.Dependencies{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Tokens:      auth.NewJWTService(cfg.JWT),
		RateLimiter: rateLimiter,
		MetricsPath: cfg.Metrics.Path,
		Handlers:    handlers,
		Logger:      log,
	}
	if appMetrics != nil {
		deps.Metrics = appMetrics
	}
	engine, err := router.NewEngine(deps)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newImageStorage returns the S3 store when object storage is enabled.
// Otherwise images are kept in memory and served by the API itself, which
// only suits development.
func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ImageStorage, *storage.MemoryImageStorage) {
	if !cfg.Storage.Enabled {
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + cfg.App.Port + "/images"
		}
		log.Warn("Object storage disabled, keeping product images in memory", zap.String("base_url", baseURL))
		mem := storage.NewMemoryImageStorage(baseURL)
		return mem, mem
	}

	s3Store, err := storage.NewS3ImageStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create S3 image storage", zap.Error(err))
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare image bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
	}
	log.Info("Using S3 image storage", zap.String("bucket", s3Store.Bucket()))
	return s3Store, nil
}
