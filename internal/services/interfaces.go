package services

import (
	"context"

	"github.com/dentorhub/dentorhub-api/internal/models"
	stripe "github.com/stripe/stripe-go/v82"
)

// WebhookServiceInterface defines the interface for payment webhook processing.
// ProcessEvent returns duplicate=true when the provider event id was already
// accepted for processing; the handler must answer 200 without re-running
// side effects.
type WebhookServiceInterface interface {
	ProcessEvent(ctx context.Context, event *stripe.Event) (duplicate bool, err error)
	ListStuckEvents(ctx context.Context) ([]*models.WebhookEvent, error)
}

// NotificationServiceInterface defines the interface for booking confirmation
// email dispatch. The returned DispatchResult's error list is a warning list;
// only the returned error (validation or data problems) is fatal.
type NotificationServiceInterface interface {
	DispatchBookingConfirmation(ctx context.Context, reservationID, sessionID, fallbackTimezone string) (*models.DispatchResult, error)
}

// Ensure services implement their interfaces
var _ WebhookServiceInterface = (*WebhookService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
