package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/handlers"
	"github.com/dentorhub/dentorhub-api/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// setupRouter builds the gin engine with all middleware and routes.
func setupRouter(
	cfg *config.Config,
	webhookHandler *handlers.WebhookHandler,
	webhookEventsHandler *handlers.WebhookEventsHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	router := gin.New()
	// A wrong method on a known path must answer 405, not gin's default 404,
	// so a sender misconfigured to GET the webhook URL gets an unambiguous
	// signal
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "x-internal-api-auth-token", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters per endpoint class. The webhook limit is sized to the
	// provider's delivery concurrency, not to human traffic.
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	webhookRateLimiter := middleware.NewRateLimiter(50, 100)  // 50 req/sec, burst of 100
	internalRateLimiter := middleware.NewRateLimiter(5, 10)   // 5 req/sec, burst of 10

	// Utility endpoints (not versioned - operational endpoints)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.POST("/webhooks/stripe",
		webhookRateLimiter.Middleware(),
		middleware.BodySizeLimitMiddleware(512*1024),
		webhookHandler.HandleStripeWebhook)
	v1.GET("/internal/webhook-events/stuck",
		internalRateLimiter.Middleware(),
		middleware.InternalAPIAuthMiddleware(cfg.Auth.InternalAPIToken),
		webhookEventsHandler.ListStuck)

	return router
}
