package services_test

import (
	"context"
	"time"

	"github.com/dentorhub/dentorhub-api/internal/models"
	"github.com/dentorhub/dentorhub-api/pkg/email"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReservationRepository is a mock implementation of ReservationRepositoryInterface
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetBookingDetails(ctx context.Context, reservationID, sessionID uuid.UUID) (*models.BookingDetails, error) {
	args := m.Called(ctx, reservationID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDetails), args.Error(1)
}

func (m *MockReservationRepository) MarkEmailSent(ctx context.Context, reservationID uuid.UUID, recipient models.Recipient) (bool, error) {
	args := m.Called(ctx, reservationID, recipient)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) ConfirmBookingPayment(ctx context.Context, reservationID uuid.UUID, checkoutID, paymentIntentID string) (*models.ConfirmResult, error) {
	args := m.Called(ctx, reservationID, checkoutID, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConfirmResult), args.Error(1)
}

func (m *MockReservationRepository) CancelBookingHold(ctx context.Context, reservationID uuid.UUID) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepositoryInterface
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) InsertProcessing(ctx context.Context, event *models.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkCompleted(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkFailed(ctx context.Context, eventID, message string) error {
	args := m.Called(ctx, eventID, message)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) AttachSession(ctx context.Context, eventID, sessionID string) error {
	args := m.Called(ctx, eventID, sessionID)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) ListStuck(ctx context.Context, cutoff time.Time) ([]*models.WebhookEvent, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookEvent), args.Error(1)
}

// MockEmailSender is a mock implementation of email.Sender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of NotificationServiceInterface
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) DispatchBookingConfirmation(ctx context.Context, reservationID, sessionID, fallbackTimezone string) (*models.DispatchResult, error) {
	args := m.Called(ctx, reservationID, sessionID, fallbackTimezone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}
