package repository

import (
	"context"
	"time"

	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/google/uuid"
)

// ReservationRepositoryInterface defines reservation data access.
// Reservations are mutated only through the booking stored procedures;
// the email-sent dedup flags are the single exception, claimed with a
// conditional single-row update.
type ReservationRepositoryInterface interface {
	GetBookingDetails(ctx context.Context, reservationID, sessionID uuid.UUID) (*models.BookingDetails, error)
	MarkEmailSent(ctx context.Context, reservationID uuid.UUID, recipient models.Recipient) (bool, error)
	ConfirmBookingPayment(ctx context.Context, reservationID uuid.UUID, checkoutID, paymentIntentID string) (*models.ConfirmResult, error)
	CancelBookingHold(ctx context.Context, reservationID uuid.UUID) error
}

// WebhookEventRepositoryInterface defines idempotency ledger access
type WebhookEventRepositoryInterface interface {
	InsertProcessing(ctx context.Context, event *models.WebhookEvent) error
	MarkCompleted(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, message string) error
	AttachSession(ctx context.Context, eventID, sessionID string) error
	ListStuck(ctx context.Context, cutoff time.Time) ([]*models.WebhookEvent, error)
}
