package models

import (
	"encoding/json"
	"time"
)

// WebhookEventStatus represents the processing state of a provider event record
type WebhookEventStatus string

const (
	WebhookEventStatusProcessing WebhookEventStatus = "processing"
	WebhookEventStatusCompleted  WebhookEventStatus = "completed"
	WebhookEventStatusFailed     WebhookEventStatus = "failed"
)

// WebhookEvent is one row of the idempotency ledger: a single payment
// provider webhook delivery attempt. The provider event id is globally
// unique; a second insert with the same id fails with a uniqueness
// violation, which the handler interprets as "already processed".
// Rows are never deleted.
type WebhookEvent struct {
	ID            int64              `json:"id"`
	EventID       string             `json:"event_id"`
	EventType     string             `json:"event_type"`
	ReservationID string             `json:"reservation_id,omitempty"` // empty when the event carries no reservation metadata
	CheckoutID    string             `json:"checkout_id,omitempty"`
	SessionID     string             `json:"session_id,omitempty"` // backfilled after confirmation for traceability
	Status        WebhookEventStatus `json:"status"`
	ErrorMessage  string             `json:"error_message,omitempty"`
	Payload       json.RawMessage    `json:"-"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// WebhookResponse is the JSON body returned to the payment provider.
type WebhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}
