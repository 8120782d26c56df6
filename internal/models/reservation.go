package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Recipient identifies which party of a reservation an email is addressed to.
type Recipient string

const (
	RecipientMentee Recipient = "mentee"
	RecipientMentor Recipient = "mentor"
)

// Reservation is a tentative hold on a mentor's time slot pending payment.
// The webhook pipeline never writes reservation fields directly except the
// two email-sent timestamps, which are claimed with a conditional update.
type Reservation struct {
	ID                uuid.UUID
	MentorID          uuid.UUID
	MenteeID          uuid.UUID
	ServiceID         *uuid.UUID
	SessionID         *uuid.UUID
	Status            ReservationStatus
	ExpiresAt         *time.Time
	MenteeEmailSentAt *time.Time
	MentorEmailSentAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EmailSentAt returns the dedup flag for the given recipient.
func (r *Reservation) EmailSentAt(recipient Recipient) *time.Time {
	if recipient == RecipientMentor {
		return r.MentorEmailSentAt
	}
	return r.MenteeEmailSentAt
}

// Party holds the profile data needed to address one side of a booking.
type Party struct {
	ProfileID uuid.UUID
	FullName  string
	Email     string
	Timezone  string
}

// BookingDetails is the joined reservation/session/profile view the
// notification dispatcher composes emails from. It is always read fresh from
// the ledger store; the webhook payload is never used as an email source.
type BookingDetails struct {
	Reservation Reservation
	Mentor      Party
	Mentee      Party
	StartsAt    time.Time
	DurationMin int
	PriceCents  int64
	Currency    string
}
