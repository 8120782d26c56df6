package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dentorhub/dentorhub-api/internal/models"
	apperrors "github.com/dentorhub/dentorhub-api/pkg/errors"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// GetBookingDetails loads the joined reservation/session/profile view used
// to compose confirmation emails. Data is read fresh on every call: the
// webhook payload may be stale or incomplete and is never trusted here.
func (c *Client) GetBookingDetails(ctx context.Context, reservationID, sessionID uuid.UUID) (*models.BookingDetails, error) {
	start := time.Now()
	operation := "getBookingDetails"

	query := `
		SELECT r.id, r.mentor_id, r.mentee_id, r.service_id, r.session_id, r.status,
		       r.expires_at, r.mentee_email_sent_at, r.mentor_email_sent_at,
		       r.created_at, r.updated_at,
		       pm.id, pm.full_name, COALESCE(pm.email, ''), COALESCE(pm.timezone, ''),
		       pe.id, pe.full_name, COALESCE(pe.email, ''), COALESCE(pe.timezone, ''),
		       s.starts_at, s.duration_minutes, s.price_cents, s.currency
		FROM reservations r
		JOIN sessions s ON s.id = $2
		JOIN profiles pm ON pm.id = r.mentor_id
		JOIN profiles pe ON pe.id = r.mentee_id
		WHERE r.id = $1
	`

	var d models.BookingDetails
	err := c.pool.QueryRow(ctx, query, reservationID, sessionID).Scan(
		&d.Reservation.ID, &d.Reservation.MentorID, &d.Reservation.MenteeID,
		&d.Reservation.ServiceID, &d.Reservation.SessionID, &d.Reservation.Status,
		&d.Reservation.ExpiresAt, &d.Reservation.MenteeEmailSentAt, &d.Reservation.MentorEmailSentAt,
		&d.Reservation.CreatedAt, &d.Reservation.UpdatedAt,
		&d.Mentor.ProfileID, &d.Mentor.FullName, &d.Mentor.Email, &d.Mentor.Timezone,
		&d.Mentee.ProfileID, &d.Mentee.FullName, &d.Mentee.Email, &d.Mentee.Timezone,
		&d.StartsAt, &d.DurationMin, &d.PriceCents, &d.Currency,
	)

	duration := metrics.MeasureDuration(start)

	if err == pgx.ErrNoRows {
		recordMetrics(operation, "not_found", duration)
		return nil, apperrors.NotFoundError("booking")
	}
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to get booking details: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return &d, nil
}

// MarkEmailSent claims the per-recipient dedup flag with a compare-and-swap:
// the timestamp is only written when it is still NULL at update time. Returns
// true when this call won the claim, false when another invocation already
// set the flag. The conditional WHERE clause is the sole concurrency control;
// no surrounding transaction or lock is required.
func (c *Client) MarkEmailSent(ctx context.Context, reservationID uuid.UUID, recipient models.Recipient) (bool, error) {
	start := time.Now()
	operation := "markEmailSent"

	var query string
	switch recipient {
	case models.RecipientMentee:
		query = `
			UPDATE reservations
			SET mentee_email_sent_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND mentee_email_sent_at IS NULL
		`
	case models.RecipientMentor:
		query = `
			UPDATE reservations
			SET mentor_email_sent_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND mentor_email_sent_at IS NULL
		`
	default:
		return false, apperrors.InvalidInputError("recipient", string(recipient))
	}

	result, err := c.pool.Exec(ctx, query, reservationID)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return false, fmt.Errorf("failed to mark %s email sent: %w", recipient, err)
	}

	claimed := result.RowsAffected() > 0
	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration,
		zap.String("reservation_id", reservationID.String()),
		zap.String("recipient", string(recipient)),
		zap.Bool("claimed", claimed))

	return claimed, nil
}

// ConfirmBookingPayment invokes the confirm_booking_payment stored procedure.
// The procedure is idempotent: confirming an already-confirmed reservation
// returns status "already_processed" with the previously linked session id.
func (c *Client) ConfirmBookingPayment(ctx context.Context, reservationID uuid.UUID, checkoutID, paymentIntentID string) (*models.ConfirmResult, error) {
	start := time.Now()
	operation := "confirmBookingPayment"

	query := `SELECT status, session_id FROM confirm_booking_payment($1, $2, $3)`

	var res models.ConfirmResult
	err := c.pool.QueryRow(ctx, query, reservationID, checkoutID, paymentIntentID).Scan(
		&res.Status, &res.SessionID,
	)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("confirm_booking_payment failed: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration,
		zap.String("reservation_id", reservationID.String()),
		zap.String("status", string(res.Status)),
		zap.String("session_id", res.SessionID.String()))

	return &res, nil
}

// CancelBookingHold invokes the cancel_booking_hold stored procedure,
// releasing the mentor/slot exclusivity lock. Errors when the reservation
// does not exist or is not in a cancellable state.
func (c *Client) CancelBookingHold(ctx context.Context, reservationID uuid.UUID) error {
	start := time.Now()
	operation := "cancelBookingHold"

	_, err := c.pool.Exec(ctx, `SELECT cancel_booking_hold($1)`, reservationID)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("cancel_booking_hold failed: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration,
		zap.String("reservation_id", reservationID.String()))

	return nil
}

// GetServiceTitle fetches a service title from the catalog.
func (c *Client) GetServiceTitle(ctx context.Context, serviceID uuid.UUID) (string, error) {
	start := time.Now()
	operation := "getServiceTitle"

	var title string
	err := c.pool.QueryRow(ctx, `SELECT title FROM services WHERE id = $1`, serviceID).Scan(&title)

	duration := metrics.MeasureDuration(start)

	if err == pgx.ErrNoRows {
		recordMetrics(operation, "not_found", duration)
		return "", apperrors.NotFoundError("service")
	}
	if err != nil {
		recordMetrics(operation, "error", duration)
		return "", fmt.Errorf("failed to get service title: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return title, nil
}
