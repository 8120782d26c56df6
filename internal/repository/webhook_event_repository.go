package repository

import (
	"context"
	"time"

	"github.com/dentorhub/dentorhub-api/internal/database/postgres"
	"github.com/dentorhub/dentorhub-api/internal/models"
)

// WebhookEventRepository handles idempotency ledger access
type WebhookEventRepository struct {
	client *postgres.Client
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(client *postgres.Client) *WebhookEventRepository {
	return &WebhookEventRepository{client: client}
}

// InsertProcessing appends a provider event record in `processing` state.
// Returns ErrDuplicate when the provider event id was already recorded.
func (r *WebhookEventRepository) InsertProcessing(ctx context.Context, event *models.WebhookEvent) error {
	return r.client.InsertProcessingEvent(ctx, event)
}

// MarkCompleted transitions the record to `completed`
func (r *WebhookEventRepository) MarkCompleted(ctx context.Context, eventID string) error {
	return r.client.MarkEventCompleted(ctx, eventID)
}

// MarkFailed transitions the record to `failed` with an error message
func (r *WebhookEventRepository) MarkFailed(ctx context.Context, eventID, message string) error {
	return r.client.MarkEventFailed(ctx, eventID, message)
}

// AttachSession backfills the confirmed session id for traceability
func (r *WebhookEventRepository) AttachSession(ctx context.Context, eventID, sessionID string) error {
	return r.client.AttachEventSession(ctx, eventID, sessionID)
}

// ListStuck returns `processing` records older than the cutoff
func (r *WebhookEventRepository) ListStuck(ctx context.Context, cutoff time.Time) ([]*models.WebhookEvent, error) {
	return r.client.ListStuckEvents(ctx, cutoff)
}

// Ensure repository implements its interface
var _ WebhookEventRepositoryInterface = (*WebhookEventRepository)(nil)
