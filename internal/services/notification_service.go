package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dentorhub/dentorhub-api/config"
	"github.com/dentorhub/dentorhub-api/internal/cache"
	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/internal/repository"
	"github.com/dentorhub/dentorhub-api/pkg/email"
	apperrors "github.com/dentorhub/dentorhub-api/pkg/errors"
	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/dentorhub/dentorhub-api/pkg/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fallbackServiceTitle is used when the booked service was deleted or the
// reservation never carried one.
const fallbackServiceTitle = "Mentorship session"

// NotificationService sends booking confirmation emails to both parties of a
// reservation with per-recipient dedup.
//
// The send-then-flag ordering is deliberate: the dedup flag is only claimed
// after a confirmed successful send, so a flag-write failure can at worst
// cause a rare duplicate email, never a silently missing one. The
// WHERE-is-null conditional update makes the claim race-safe without locks.
type NotificationService struct {
	reservationRepo repository.ReservationRepositoryInterface
	serviceCatalog  *cache.ServiceCatalogCache
	sender          email.Sender
	config          *config.Config
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(
	reservationRepo repository.ReservationRepositoryInterface,
	serviceCatalog *cache.ServiceCatalogCache,
	sender email.Sender,
	cfg *config.Config,
) *NotificationService {
	return &NotificationService{
		reservationRepo: reservationRepo,
		serviceCatalog:  serviceCatalog,
		sender:          sender,
		config:          cfg,
	}
}

// DispatchBookingConfirmation sends at most one confirmation email to the
// mentee and one to the mentor for the given reservation. A failure for one
// recipient never blocks the other; send failures are collected in the
// result's warning list. Missing reservation, session or profile data fails
// fast before any send is attempted.
func (s *NotificationService) DispatchBookingConfirmation(ctx context.Context, reservationID, sessionID, fallbackTimezone string) (*models.DispatchResult, error) {
	resID, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, apperrors.InvalidInputError("reservation_id", "must be a valid UUID")
	}
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, apperrors.InvalidInputError("session_id", "must be a valid UUID")
	}

	// Always composed from current ledger data, never from the webhook payload
	details, err := s.reservationRepo.GetBookingDetails(ctx, resID, sessID)
	if err != nil {
		return nil, err
	}

	// Partial data is not an acceptable basis for a confirmation email
	if details.Mentee.Email == "" {
		return nil, apperrors.NotFoundError("mentee email address")
	}
	if details.Mentor.Email == "" {
		return nil, apperrors.NotFoundError("mentor email address")
	}

	serviceTitle := s.resolveServiceTitle(ctx, details)

	result := &models.DispatchResult{
		Mentee: models.RecipientResult{Recipient: models.RecipientMentee},
		Mentor: models.RecipientResult{Recipient: models.RecipientMentor},
	}

	s.sendToRecipient(ctx, models.RecipientMentee, details, sessID, serviceTitle, fallbackTimezone, &result.Mentee, &result.Errors)
	s.sendToRecipient(ctx, models.RecipientMentor, details, sessID, serviceTitle, fallbackTimezone, &result.Mentor, &result.Errors)

	return result, nil
}

// sendToRecipient runs one recipient's atomic unit: check flag, compose,
// send, claim flag.
func (s *NotificationService) sendToRecipient(
	ctx context.Context,
	recipient models.Recipient,
	details *models.BookingDetails,
	sessionID uuid.UUID,
	serviceTitle, fallbackTimezone string,
	recipientResult *models.RecipientResult,
	errorList *[]string,
) {
	reservationID := details.Reservation.ID

	if details.Reservation.EmailSentAt(recipient) != nil {
		logger.Info("Confirmation email already sent, skipping",
			zap.String("reservation_id", reservationID.String()),
			zap.String("recipient", string(recipient)))
		metrics.EmailSendTotal.WithLabelValues(string(recipient), "skipped").Inc()
		recipientResult.Skipped = true
		return
	}

	msg := s.composeMessage(recipient, details, sessionID, serviceTitle, fallbackTimezone)

	err := retry.Do(ctx, retry.EmailConfig(), "sendConfirmationEmail", func() error {
		return s.sender.Send(ctx, msg)
	})
	if err != nil {
		metrics.EmailSendTotal.WithLabelValues(string(recipient), "error").Inc()
		logger.Error("Failed to send confirmation email",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
			zap.String("recipient", string(recipient)))
		*errorList = append(*errorList, fmt.Sprintf("%s: %v", recipient, err))
		return
	}

	metrics.EmailSendTotal.WithLabelValues(string(recipient), "sent").Inc()
	recipientResult.Sent = true

	// Claim the dedup flag only after a confirmed send. The conditional
	// update loses cleanly if a concurrent invocation flagged first.
	claimed, err := s.reservationRepo.MarkEmailSent(ctx, reservationID, recipient)
	if err != nil {
		// The email went out; a failed flag write risks a duplicate on the
		// next delivery, which is the accepted side of the tradeoff.
		logger.Error("Failed to set email-sent flag after send",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
			zap.String("recipient", string(recipient)))
		*errorList = append(*errorList, fmt.Sprintf("%s: flag write failed: %v", recipient, err))
		return
	}
	if !claimed {
		logger.Warn("Email-sent flag was already claimed by a concurrent send",
			zap.String("reservation_id", reservationID.String()),
			zap.String("recipient", string(recipient)))
	}
}

func (s *NotificationService) resolveServiceTitle(ctx context.Context, details *models.BookingDetails) string {
	if details.Reservation.ServiceID == nil {
		return fallbackServiceTitle
	}

	title, err := s.serviceCatalog.GetTitle(ctx, *details.Reservation.ServiceID)
	if err != nil || title == "" {
		logger.Warn("Falling back to generic service title",
			zap.Error(err),
			zap.String("service_id", details.Reservation.ServiceID.String()))
		return fallbackServiceTitle
	}

	return title
}

func (s *NotificationService) composeMessage(recipient models.Recipient, details *models.BookingDetails, sessionID uuid.UUID, serviceTitle, fallbackTimezone string) email.Message {
	var to models.Party
	var counterpart models.Party
	var subject, intro, dashboardPath string

	switch recipient {
	case models.RecipientMentor:
		to = details.Mentor
		counterpart = details.Mentee
		subject = "New mentorship session booked"
		intro = fmt.Sprintf("%s has booked a session with you.", counterpart.FullName)
		dashboardPath = "/mentor/bookings/"
	default:
		to = details.Mentee
		counterpart = details.Mentor
		subject = "Your mentorship session is confirmed"
		intro = fmt.Sprintf("Your session with %s is confirmed.", counterpart.FullName)
		dashboardPath = "/dashboard/bookings/"
	}

	loc := resolveTimezone(to.Timezone, fallbackTimezone)
	startsAt := details.StartsAt.In(loc)

	dashboardURL := s.config.AppBaseURL() + dashboardPath + sessionID.String()

	html := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>When:</strong> %s (%s)</li>
			<li><strong>Duration:</strong> %d minutes</li>
			<li><strong>Price:</strong> %s</li>
		</ul>
		<p><a href="%s">View the session in your dashboard</a></p>
	`,
		to.FullName,
		intro,
		serviceTitle,
		startsAt.Format("Monday, 2 January 2006 at 15:04"),
		loc.String(),
		details.DurationMin,
		formatPrice(details.PriceCents, details.Currency),
		dashboardURL,
	)

	return email.Message{
		From:    s.config.Email.FromAddress,
		To:      to.Email,
		Subject: subject,
		HTML:    html,
	}
}

// resolveTimezone falls through profile timezone, then the caller-supplied
// timezone, then UTC.
func resolveTimezone(profileTZ, fallbackTZ string) *time.Location {
	for _, name := range []string{profileTZ, fallbackTZ} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		logger.Warn("Unknown timezone, trying next fallback", zap.String("timezone", name))
	}
	return time.UTC
}

func formatPrice(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, strings.ToUpper(currency))
}
