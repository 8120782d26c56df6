package handlers

import (
	"net/http"

	"github.com/dentorhub/dentorhub-api/internal/services"
	"github.com/gin-gonic/gin"
)

// WebhookEventsHandler exposes the idempotency ledger for operators.
type WebhookEventsHandler struct {
	service services.WebhookServiceInterface
}

func NewWebhookEventsHandler(service services.WebhookServiceInterface) *WebhookEventsHandler {
	return &WebhookEventsHandler{service: service}
}

// ListStuck returns event records stuck in `processing` past the configured
// threshold. These are candidates for reconciliation against the payment
// provider's event log before any manual replay.
func (h *WebhookEventsHandler) ListStuck(c *gin.Context) {
	events, err := h.service.ListStuckEvents(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list stuck webhook events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
