package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dentorhub/dentorhub-api/internal/models"
	apperrors "github.com/dentorhub/dentorhub-api/pkg/errors"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// PostgreSQL SQLSTATE for unique_violation
const uniqueViolationCode = "23505"

// InsertProcessingEvent appends a provider event record in `processing`
// state. The unique constraint on event_id is the idempotency gate: a
// concurrent or repeated delivery of the same provider event id fails here
// with ErrDuplicate and must be answered 200 without re-running side effects.
func (c *Client) InsertProcessingEvent(ctx context.Context, event *models.WebhookEvent) error {
	start := time.Now()
	operation := "insertWebhookEvent"

	query := `
		INSERT INTO webhook_events (event_id, event_type, reservation_id, checkout_id, status, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := c.pool.Exec(ctx, query,
		event.EventID,
		event.EventType,
		nilIfEmpty(event.ReservationID),
		nilIfEmpty(event.CheckoutID),
		models.WebhookEventStatusProcessing,
		event.Payload,
	)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			recordMetrics(operation, "duplicate", duration)
			return apperrors.DuplicateError("webhook event " + event.EventID)
		}

		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration,
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType))

	return nil
}

// MarkEventCompleted transitions a provider event record to its terminal
// `completed` state.
func (c *Client) MarkEventCompleted(ctx context.Context, eventID string) error {
	return c.updateEventStatus(ctx, "markEventCompleted", eventID,
		`UPDATE webhook_events SET status = $2, error_message = NULL, updated_at = NOW() WHERE event_id = $1`,
		models.WebhookEventStatusCompleted)
}

// MarkEventFailed transitions a provider event record to `failed` and stores
// the error message for operator visibility. Rows are never deleted; repeated
// failed rows for the same underlying data problem double as an alert signal.
func (c *Client) MarkEventFailed(ctx context.Context, eventID, message string) error {
	start := time.Now()
	operation := "markEventFailed"

	result, err := c.pool.Exec(ctx,
		`UPDATE webhook_events SET status = $2, error_message = $3, updated_at = NOW() WHERE event_id = $1`,
		eventID, models.WebhookEventStatusFailed, message)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to mark webhook event failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("webhook event")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// AttachEventSession backfills the confirmed session id onto the provider
// event record for traceability.
func (c *Client) AttachEventSession(ctx context.Context, eventID, sessionID string) error {
	start := time.Now()
	operation := "attachEventSession"

	_, err := c.pool.Exec(ctx,
		`UPDATE webhook_events SET session_id = $2, updated_at = NOW() WHERE event_id = $1`,
		eventID, sessionID)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to attach session to webhook event: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// ListStuckEvents returns provider event records still in `processing` state
// created before the cutoff. These indicate a crash or timeout between the
// idempotency insert and finalization; they need operator attention or a
// reconciliation sweep against the payment provider.
func (c *Client) ListStuckEvents(ctx context.Context, cutoff time.Time) ([]*models.WebhookEvent, error) {
	start := time.Now()
	operation := "listStuckEvents"

	query := `
		SELECT id, event_id, event_type,
		       COALESCE(reservation_id::text, ''), COALESCE(checkout_id, ''),
		       COALESCE(session_id::text, ''), status, COALESCE(error_message, ''),
		       created_at, updated_at
		FROM webhook_events
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
	`

	rows, err := c.pool.Query(ctx, query, models.WebhookEventStatusProcessing, cutoff)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to query stuck webhook events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.WebhookEvent, 0)
	for rows.Next() {
		event, scanErr := scanWebhookEvent(rows)
		if scanErr != nil {
			duration := metrics.MeasureDuration(start)
			recordMetrics(operation, "error", duration)
			return nil, scanErr
		}
		events = append(events, event)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration, zap.Int("count", len(events)))

	return events, nil
}

func (c *Client) updateEventStatus(ctx context.Context, operation, eventID, query string, status models.WebhookEventStatus) error {
	start := time.Now()

	result, err := c.pool.Exec(ctx, query, eventID, status)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update webhook event status: %w", err)
	}
	if result.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("webhook event")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// scanWebhookEvent scans a row into a WebhookEvent (payload omitted in list views)
func scanWebhookEvent(rows pgx.Rows) (*models.WebhookEvent, error) {
	var e models.WebhookEvent

	err := rows.Scan(
		&e.ID, &e.EventID, &e.EventType,
		&e.ReservationID, &e.CheckoutID,
		&e.SessionID, &e.Status, &e.ErrorMessage,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan webhook event row: %w", err)
	}

	return &e, nil
}

// nilIfEmpty returns nil if string is empty, otherwise returns pointer to string
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
