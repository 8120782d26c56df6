package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWebhookEventsHandler_ListStuck(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookEventsHandler(mockService)

	stuck := []*models.WebhookEvent{
		{EventID: "evt_stuck_1", EventType: "checkout.session.completed", Status: models.WebhookEventStatusProcessing},
	}
	mockService.On("ListStuckEvents", mock.Anything).Return(stuck, nil).Once()

	router := gin.New()
	router.GET("/internal/webhook-events/stuck", handler.ListStuck)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/internal/webhook-events/stuck", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "evt_stuck_1")
	assert.Contains(t, w.Body.String(), `"count":1`)
	mockService.AssertExpectations(t)
}

func TestWebhookEventsHandler_ListStuck_Error(t *testing.T) {
	mockService := new(mockWebhookService)
	handler := NewWebhookEventsHandler(mockService)

	mockService.On("ListStuckEvents", mock.Anything).Return(nil, errors.New("db unavailable")).Once()

	router := gin.New()
	router.GET("/internal/webhook-events/stuck", handler.ListStuck)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/internal/webhook-events/stuck", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockService.AssertExpectations(t)
}
