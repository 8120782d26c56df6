package models

// RecipientResult reports the outcome of one recipient's send-and-flag unit.
type RecipientResult struct {
	Recipient Recipient `json:"recipient"`
	Sent      bool      `json:"sent"`
	Skipped   bool      `json:"skipped"` // dedup flag was already set at check time
}

// DispatchResult is the structured outcome of a booking-confirmation
// dispatch. Errors is a warning list: a non-empty list must not fail the
// webhook, because payment confirmation never depends on email delivery.
type DispatchResult struct {
	Mentee RecipientResult `json:"mentee"`
	Mentor RecipientResult `json:"mentor"`
	Errors []string        `json:"errors,omitempty"`
}

// HasErrors reports whether any recipient's send failed.
func (d *DispatchResult) HasErrors() bool {
	return len(d.Errors) > 0
}
