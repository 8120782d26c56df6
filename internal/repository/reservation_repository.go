package repository

import (
	"context"

	"github.com/dentorhub/dentorhub-api/internal/database/postgres"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/google/uuid"
)

// ReservationRepository handles reservation data access
type ReservationRepository struct {
	client *postgres.Client
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(client *postgres.Client) *ReservationRepository {
	return &ReservationRepository{client: client}
}

// GetBookingDetails loads the joined view used for email composition
func (r *ReservationRepository) GetBookingDetails(ctx context.Context, reservationID, sessionID uuid.UUID) (*models.BookingDetails, error) {
	return r.client.GetBookingDetails(ctx, reservationID, sessionID)
}

// MarkEmailSent claims the per-recipient dedup flag; returns true when this
// call won the claim
func (r *ReservationRepository) MarkEmailSent(ctx context.Context, reservationID uuid.UUID, recipient models.Recipient) (bool, error) {
	return r.client.MarkEmailSent(ctx, reservationID, recipient)
}

// ConfirmBookingPayment invokes the idempotent confirmation stored procedure
func (r *ReservationRepository) ConfirmBookingPayment(ctx context.Context, reservationID uuid.UUID, checkoutID, paymentIntentID string) (*models.ConfirmResult, error) {
	return r.client.ConfirmBookingPayment(ctx, reservationID, checkoutID, paymentIntentID)
}

// CancelBookingHold releases an expired hold via its stored procedure
func (r *ReservationRepository) CancelBookingHold(ctx context.Context, reservationID uuid.UUID) error {
	return r.client.CancelBookingHold(ctx, reservationID)
}

// Ensure repository implements its interface
var _ ReservationRepositoryInterface = (*ReservationRepository)(nil)
