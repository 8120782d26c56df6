package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the state of a confirmed mentorship session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// SessionPaymentStatus represents the payment state of a session
type SessionPaymentStatus string

const (
	SessionPaymentStatusPaid     SessionPaymentStatus = "paid"
	SessionPaymentStatusRefunded SessionPaymentStatus = "refunded"
)

// Session is the confirmed, bookable calendar event created once payment
// succeeds. Rows are created exclusively by the confirm_booking_payment
// stored procedure, never by application code.
type Session struct {
	ID            uuid.UUID
	MentorID      uuid.UUID
	MenteeID      uuid.UUID
	StartsAt      time.Time
	DurationMin   int
	PriceCents    int64
	Currency      string
	Status        SessionStatus
	PaymentStatus SessionPaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ConfirmStatus is the outcome of confirm_booking_payment.
type ConfirmStatus string

const (
	ConfirmStatusConfirmed        ConfirmStatus = "confirmed"
	ConfirmStatusAlreadyProcessed ConfirmStatus = "already_processed"
)

// ConfirmResult carries the stored procedure's outcome and the session the
// reservation is (or was previously) linked to.
type ConfirmResult struct {
	Status    ConfirmStatus
	SessionID uuid.UUID
}
