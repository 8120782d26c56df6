package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/cache"
	"github.com/dentorhub/dentorhub-api/internal/database/postgres"
	"github.com/dentorhub/dentorhub-api/internal/handlers"
	"github.com/dentorhub/dentorhub-api/internal/repository"
	"github.com/dentorhub/dentorhub-api/internal/services"
	"github.com/dentorhub/dentorhub-api/pkg/db"
	"github.com/dentorhub/dentorhub-api/pkg/email"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/dentorhub/dentorhub-api/pkg/profiling"
	"github.com/dentorhub/dentorhub-api/pkg/tracing"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Dentorhub API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(context.Background(), db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// NOTE: Database migrations are run separately via the migrate command
	// before starting the app: ./migrate or docker-compose run migrate

	dbClient := postgres.NewClient(pool)

	// Initialize repositories
	reservationRepo := repository.NewReservationRepository(dbClient)
	webhookEventRepo := repository.NewWebhookEventRepository(dbClient)

	// Service titles change rarely; everything else is read fresh per event
	serviceCatalog := cache.NewServiceCatalogCache(dbClient.GetServiceTitle, cfg.Cache.ServiceTitleTTLSeconds)

	// Initialize email sender
	emailSender, err := email.NewResendSender(cfg.Email.ResendAPIKey)
	if err != nil {
		logger.Fatal("Failed to initialize email sender", zap.Error(err))
	}

	// Initialize services
	notificationService := services.NewNotificationService(reservationRepo, serviceCatalog, emailSender, cfg)
	webhookService := services.NewWebhookService(reservationRepo, webhookEventRepo, notificationService, cfg)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(webhookService, cfg)
	webhookEventsHandler := handlers.NewWebhookEventsHandler(webhookService)
	healthHandler := handlers.NewHealthHandler(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return dbClient.Ping(ctx) == nil
	})

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := setupRouter(cfg, webhookHandler, webhookEventsHandler, healthHandler)

	// Create HTTP server
	// Bind to all interfaces for container networking; isolation is enforced
	// at the deployment layer
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
