package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/handlers"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

type stubWebhookService struct{}

func (stubWebhookService) ProcessEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	return false, nil
}

func (stubWebhookService) ListStuckEvents(ctx context.Context) ([]*models.WebhookEvent, error) {
	return nil, nil
}

func newTestRouter() *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AppEnv:         "development",
			AllowedOrigins: []string{"https://dentorhub.test"},
		},
		Stripe:        config.StripeConfig{WebhookSecret: "whsec_test"},
		Auth:          config.AuthConfig{InternalAPIToken: "internal_test_token"},
		Observability: config.ObservabilityConfig{ServiceName: "dentorhub-api"},
	}
	svc := stubWebhookService{}
	return setupRouter(cfg,
		handlers.NewWebhookHandler(svc, cfg),
		handlers.NewWebhookEventsHandler(svc),
		handlers.NewHealthHandler(func() bool { return true }),
	)
}

func TestRouter_WebhookMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/api/v1/webhooks/stripe", http.NoBody)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}

func TestRouter_WebhookPostReachesHandler(t *testing.T) {
	router := newTestRouter()

	// An unsigned POST must fail signature verification in the handler, not
	// fall through routing
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_UnknownPathIsNotFound(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/does-not-exist", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_InternalEndpointRequiresToken(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/internal/webhook-events/stuck", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Healthcheck(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/healthcheck", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
