package email

import (
	"context"
	"fmt"
	"time"

	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender sends transactional email through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(apiKey string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	return &ResendSender{
		client: resend.NewClient(apiKey),
	}, nil
}

// Send delivers a single email. Failures are returned to the caller; whether
// they are fatal is the caller's decision (webhook handling treats them as
// warnings).
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	start := time.Now()

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.LogAPICall("resend", "sendEmail", "error", duration, zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.LogAPICall("resend", "sendEmail", "success", duration,
		zap.String("email_id", sent.Id))

	return nil
}
