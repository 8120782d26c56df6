package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/internal/repository"
	apperrors "github.com/dentorhub/dentorhub-api/pkg/errors"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// Provider event types the pipeline acts on. Anything else is recorded and
// acknowledged without side effects.
const (
	eventTypeCheckoutCompleted = "checkout.session.completed"
	eventTypeCheckoutExpired   = "checkout.session.expired"
	eventTypePaymentFailed     = "payment_intent.payment_failed"
)

// metadata keys set by the checkout-creation flow
const (
	metadataKeyReservationID = "reservation_id"
	metadataKeyTimezone      = "timezone"
)

// WebhookService processes payment provider events exactly once to
// completion. Correctness under at-least-once delivery rests on two pieces:
// the unique-constraint insert into the idempotency ledger, and the
// idempotency of the booking stored procedures themselves. Between them,
// any retry of a failed event is safe to re-run in full.
type WebhookService struct {
	reservationRepo repository.ReservationRepositoryInterface
	eventRepo       repository.WebhookEventRepositoryInterface
	notifier        NotificationServiceInterface
	config          *config.Config
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(
	reservationRepo repository.ReservationRepositoryInterface,
	eventRepo repository.WebhookEventRepositoryInterface,
	notifier NotificationServiceInterface,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		notifier:        notifier,
		config:          cfg,
	}
}

// ProcessEvent runs one provider event through the pipeline:
// idempotency insert, event-type dispatch, terminal status finalization.
// Returns duplicate=true when the event id was already accepted, in which
// case no side effects ran and the caller must respond 200.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	start := time.Now()
	eventType := string(event.Type)

	record := &models.WebhookEvent{
		EventID:   event.ID,
		EventType: eventType,
		Payload:   event.Data.Raw,
	}

	// Extract checkout data up front so the ledger row links the reservation
	checkout, err := parseCheckoutSession(event)
	if err != nil {
		return false, err
	}
	if checkout != nil {
		record.ReservationID = checkout.Metadata[metadataKeyReservationID]
		record.CheckoutID = checkout.ID
	}

	if err := s.eventRepo.InsertProcessing(ctx, record); err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicate) {
			logger.Info("Webhook event already processed, skipping",
				zap.String("event_id", event.ID),
				zap.String("event_type", eventType))
			metrics.WebhookEventsTotal.WithLabelValues(eventType, "duplicate").Inc()
			return true, nil
		}
		return false, err
	}

	if err := s.dispatch(ctx, event, checkout); err != nil {
		if markErr := s.eventRepo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			logger.Error("Failed to record webhook event failure",
				zap.Error(markErr),
				zap.String("event_id", event.ID))
		}
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "failed").Inc()
		return false, err
	}

	if err := s.eventRepo.MarkCompleted(ctx, event.ID); err != nil {
		return false, err
	}

	metrics.WebhookEventsTotal.WithLabelValues(eventType, "completed").Inc()
	metrics.WebhookProcessingDuration.WithLabelValues(eventType).Observe(metrics.MeasureDuration(start))

	return false, nil
}

// dispatch routes the event through the type state machine
func (s *WebhookService) dispatch(ctx context.Context, event *stripe.Event, checkout *stripe.CheckoutSession) error {
	switch string(event.Type) {
	case eventTypeCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event, checkout)

	case eventTypeCheckoutExpired:
		return s.handleCheckoutExpired(ctx, checkout)

	case eventTypePaymentFailed:
		// No state mutation: the reservation stays held until its natural
		// expiry, released by the scheduled cleanup job.
		logger.Info("Payment failed event received",
			zap.String("event_id", event.ID))
		return nil

	default:
		logger.Info("Unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), "unhandled").Inc()
		return nil
	}
}

// handleCheckoutCompleted confirms the reservation's payment and dispatches
// the confirmation emails. Email send failures are warnings only: a
// confirmed payment is never reported as failed because the email provider
// is down.
func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event *stripe.Event, checkout *stripe.CheckoutSession) error {
	reservationID, err := requiredReservationID(checkout)
	if err != nil {
		return err
	}

	paymentIntentID := ""
	if checkout.PaymentIntent != nil {
		paymentIntentID = checkout.PaymentIntent.ID
	}

	confirm, err := s.reservationRepo.ConfirmBookingPayment(ctx, reservationID, checkout.ID, paymentIntentID)
	if err != nil {
		metrics.BookingConfirmations.WithLabelValues("error").Inc()
		return err
	}
	metrics.BookingConfirmations.WithLabelValues(string(confirm.Status)).Inc()

	logger.Info("Booking payment confirmed",
		zap.String("event_id", event.ID),
		zap.String("reservation_id", reservationID.String()),
		zap.String("session_id", confirm.SessionID.String()),
		zap.String("status", string(confirm.Status)))

	result, err := s.notifier.DispatchBookingConfirmation(ctx,
		reservationID.String(), confirm.SessionID.String(),
		checkout.Metadata[metadataKeyTimezone])
	if err != nil {
		// Data problems (missing profile, unresolvable email) are fatal so
		// the provider retries once the underlying data is fixed.
		return fmt.Errorf("notification dispatch failed: %w", err)
	}
	if result.HasErrors() {
		logger.Warn("Confirmation email warnings",
			zap.String("event_id", event.ID),
			zap.String("reservation_id", reservationID.String()),
			zap.Strings("warnings", result.Errors))
	}

	if confirm.SessionID != uuid.Nil {
		if err := s.eventRepo.AttachSession(ctx, event.ID, confirm.SessionID.String()); err != nil {
			logger.Warn("Failed to backfill session id onto webhook event",
				zap.Error(err),
				zap.String("event_id", event.ID))
		}
	}

	return nil
}

// handleCheckoutExpired releases the slot hold. A stored procedure error
// propagates: the hold must not remain stuck while reported as released.
func (s *WebhookService) handleCheckoutExpired(ctx context.Context, checkout *stripe.CheckoutSession) error {
	raw := checkout.Metadata[metadataKeyReservationID]
	if raw == "" {
		logger.Warn("Checkout expired event without reservation metadata, nothing to release",
			zap.String("checkout_id", checkout.ID))
		return nil
	}

	reservationID, err := uuid.Parse(raw)
	if err != nil {
		return apperrors.InvalidInputError(metadataKeyReservationID, "must be a valid UUID")
	}

	if err := s.reservationRepo.CancelBookingHold(ctx, reservationID); err != nil {
		metrics.BookingHoldReleases.WithLabelValues("error").Inc()
		return err
	}

	metrics.BookingHoldReleases.WithLabelValues("released").Inc()
	logger.Info("Booking hold released",
		zap.String("reservation_id", reservationID.String()),
		zap.String("checkout_id", checkout.ID))

	return nil
}

// ListStuckEvents returns provider event records stuck in `processing`
// longer than the configured threshold. A crash or timeout between the
// idempotency insert and finalization leaves rows in this state; they need
// a reconciliation sweep against the payment provider.
func (s *WebhookService) ListStuckEvents(ctx context.Context) ([]*models.WebhookEvent, error) {
	threshold := time.Duration(s.config.Webhook.StuckThresholdMinutes) * time.Minute
	cutoff := time.Now().Add(-threshold)
	return s.eventRepo.ListStuck(ctx, cutoff)
}

// parseCheckoutSession extracts the checkout object for checkout.* events.
// Other event types carry different objects and are returned as nil.
func parseCheckoutSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	eventType := string(event.Type)
	if eventType != eventTypeCheckoutCompleted && eventType != eventTypeCheckoutExpired {
		return nil, nil
	}

	var checkout stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		return nil, apperrors.InvalidInputError("event payload", "malformed checkout session object")
	}

	return &checkout, nil
}

// requiredReservationID enforces the reservation metadata contract for
// completed checkouts.
func requiredReservationID(checkout *stripe.CheckoutSession) (uuid.UUID, error) {
	raw := checkout.Metadata[metadataKeyReservationID]
	if raw == "" {
		return uuid.Nil, apperrors.InvalidInputError(metadataKeyReservationID, "missing from checkout metadata")
	}

	reservationID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.InvalidInputError(metadataKeyReservationID, "must be a valid UUID")
	}

	return reservationID, nil
}
