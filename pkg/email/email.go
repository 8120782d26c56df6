package email

import "context"

// Message is a single outbound transactional email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender defines an interface for sending transactional email.
// This allows for easy mocking and testing of email delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
