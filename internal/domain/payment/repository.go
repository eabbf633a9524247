package payment

import (
	"context"
	"time"
)

// Update describes a partial update applied by reference. Nil fields are
// left untouched.
type Update struct {
	Status                *Status
	ProviderName          *string
	ProviderTransactionID *string
}

// ListFilter defines filters for listing payments.
type ListFilter struct {
	Status   *Status
	Provider *string
	Limit    int
	Offset   int
}

// Repository defines the interface for payment persistence.
type Repository interface {
	// Create inserts a new payment in the INITIATED state.
	Create(ctx context.Context, p *Payment) error

	// GetByReference retrieves a payment by its client-facing reference,
	// with currency, payment method and provider names resolved.
	GetByReference(ctx context.Context, ref string) (*Payment, error)

	// LockByReference behaves like GetByReference but takes a row lock on
	// the payment. Only meaningful inside a transaction; every mutating
	// path goes through it so that concurrent transition checks cannot
	// both read the same stale status.
	LockByReference(ctx context.Context, ref string) (*Payment, error)

	// UpdateByReference applies a partial update and returns the updated
	// payment.
	UpdateByReference(ctx context.Context, ref string, upd Update) (*Payment, error)

	// List lists payments with filters.
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// ListStalePending returns PENDING payments not touched since the
	// cutoff, for provider-status reconciliation.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*Payment, error)
}

// WebhookRepository defines persistence for webhook idempotency records.
type WebhookRepository interface {
	// GetByPaymentReference retrieves the event for a payment reference.
	GetByPaymentReference(ctx context.Context, ref string) (*WebhookEvent, error)

	// MarkProcessed upserts the event and flags it processed. Called
	// inside the combined webhook transaction, atomically with the
	// payment update.
	MarkProcessed(ctx context.Context, event *WebhookEvent) error
}
