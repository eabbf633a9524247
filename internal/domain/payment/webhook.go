package payment

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the idempotency record for a provider webhook delivery.
// There is at most one event per payment reference (the providers deliver a
// single terminal notification per payment); provider_transaction_id is
// unique as well. Once IsProcessed is set the same delivery is a no-op.
type WebhookEvent struct {
	ID                    uuid.UUID
	PaymentReferenceID    string
	ProviderTransactionID string
	Status                Status
	// Timestamp is the provider-asserted event time, not our receive time.
	Timestamp   time.Time
	IsProcessed bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewWebhookEvent builds an unprocessed event for an accepted delivery.
func NewWebhookEvent(ref, providerTxID string, status Status, timestamp time.Time) *WebhookEvent {
	now := time.Now()
	return &WebhookEvent{
		ID:                    uuid.New(),
		PaymentReferenceID:    ref,
		ProviderTransactionID: providerTxID,
		Status:                status,
		Timestamp:             timestamp,
		IsProcessed:           false,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
