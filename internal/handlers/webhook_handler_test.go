package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
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

type mockWebhookService struct {
	mock.Mock
}

func (m *mockWebhookService) ProcessEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *mockWebhookService) ListStuckEvents(ctx context.Context) ([]*models.WebhookEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookEvent), args.Error(1)
}

func webhookTestConfig() *config.Config {
	return &config.Config{
		Stripe: config.StripeConfig{WebhookSecret: "whsec_test"},
	}
}

func newWebhookTestRouter(handler *WebhookHandler) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/webhooks/stripe", handler.HandleStripeWebhook)
	return router
}

func TestWebhookHandler_HandleStripeWebhook(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())
	handler.verify = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
		assert.Equal(t, "sig_valid", sigHeader)
		assert.Equal(t, "whsec_test", secret)
		return stripe.Event{ID: "evt_1", Type: "checkout.session.completed"}, nil
	}

	mockService.On("ProcessEvent", mock.Anything, mock.AnythingOfType("*stripe.Event")).Return(false, nil).Once()

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "sig_valid")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestWebhookHandler_HandleStripeWebhook_Duplicate(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())
	handler.verify = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
		return stripe.Event{ID: "evt_1"}, nil
	}

	mockService.On("ProcessEvent", mock.Anything, mock.AnythingOfType("*stripe.Event")).Return(true, nil).Once()

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	router.ServeHTTP(w, req)

	// Duplicates are acknowledged, never retried by the provider
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"duplicate":true}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestWebhookHandler_HandleStripeWebhook_InvalidSignature(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())
	handler.verify = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
		return stripe.Event{}, errors.New("signature mismatch")
	}

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_forged"}`))
	req.Header.Set("Stripe-Signature", "sig_bogus")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ProcessEvent")
}

// signedStripeHeader builds a Stripe-Signature header for payload, signed at
// ts with secret, in the v1 scheme the verifier expects.
func signedStripeHeader(ts time.Time, payload []byte, secret string) string {
	sig := webhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func TestWebhookHandler_HandleStripeWebhook_SignedPayload(t *testing.T) {
	mockService := new(mockWebhookService)
	// Default verifier, not stubbed: the signature is checked for real
	handler := NewWebhookHandler(mockService, webhookTestConfig())

	// The api_version is deliberately newer than the SDK's; a version
	// mismatch alone must not reject the event
	payload := []byte(`{"id":"evt_signed_1","type":"checkout.session.completed","api_version":"2099-01-01","data":{"object":{}}}`)
	mockService.On("ProcessEvent", mock.Anything, mock.AnythingOfType("*stripe.Event")).Return(false, nil).Once()

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signedStripeHeader(time.Now(), payload, "whsec_test"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestWebhookHandler_HandleStripeWebhook_TamperedPayload(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())

	signed := []byte(`{"id":"evt_signed_2","type":"checkout.session.completed","data":{"object":{}}}`)
	tampered := []byte(`{"id":"evt_signed_2","type":"checkout.session.expired","data":{"object":{}}}`)

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", bytes.NewReader(tampered))
	req.Header.Set("Stripe-Signature", signedStripeHeader(time.Now(), signed, "whsec_test"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ProcessEvent")
}

func TestWebhookHandler_HandleStripeWebhook_StaleSignature(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())

	payload := []byte(`{"id":"evt_signed_3","type":"checkout.session.completed","data":{"object":{}}}`)

	// Signed an hour ago, far outside the verifier's replay tolerance
	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signedStripeHeader(time.Now().Add(-time.Hour), payload, "whsec_test"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ProcessEvent")
}

func TestWebhookHandler_HandleStripeWebhook_ProcessingError(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookHandler(mockService, webhookTestConfig())
	handler.verify = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
		return stripe.Event{ID: "evt_1"}, nil
	}

	mockService.On("ProcessEvent", mock.Anything, mock.AnythingOfType("*stripe.Event")).
		Return(false, errors.New("db unavailable")).Once()

	router := newWebhookTestRouter(handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	router.ServeHTTP(w, req)

	// 5xx makes the provider redeliver; the idempotency ledger absorbs the retry
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockService.AssertExpectations(t)
}
