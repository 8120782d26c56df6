package handlers

import (
	"io"
	"net/http"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/internal/services"
	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

// signatureVerifier checks a raw webhook payload against its signature
// header. Injectable so handler tests don't need to produce real signatures.
type signatureVerifier func(payload []byte, sigHeader, secret string) (stripe.Event, error)

// WebhookHandler receives payment provider webhook deliveries. Signature
// verification happens here, against the raw body, before any JSON decoding
// of the event.
type WebhookHandler struct {
	service services.WebhookServiceInterface
	config  *config.Config
	verify  signatureVerifier
}

func NewWebhookHandler(service services.WebhookServiceInterface, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		config:  cfg,
		verify:  verifyStripeSignature,
	}
}

func verifyStripeSignature(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	// The provider may deliver events pinned to a newer API version than the
	// SDK was built against; that mismatch alone is not a reason to reject.
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// HandleStripeWebhook processes one provider delivery. Responses follow the
// provider's retry contract: 2xx acknowledges (including duplicates), 400
// rejects bad signatures permanently, 5xx asks for a redelivery.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	event, err := h.verify(payload, c.GetHeader(stripeSignatureHeader), h.config.Stripe.WebhookSecret)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid webhook signature", err)
		return
	}

	duplicate, err := h.service.ProcessEvent(c.Request.Context(), &event)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to process webhook", err)
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Received: true, Duplicate: duplicate})
}
