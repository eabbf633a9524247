package providers

import (
	"context"

	"github.com/ankunda/payflow/internal/domain/payment"
)

// Result is the outcome of a provider call.
type Result struct {
	ProviderTransactionID string
	Status                payment.Status // PENDING or FAILED for initiation
	Message               string
}

// InitiateRequest carries everything a gateway needs to start collecting a
// payment from the customer.
type InitiateRequest struct {
	ReferenceID   string
	AmountCents   int64
	Currency      string
	CustomerPhone string
	CustomerEmail *string
}

// Provider abstracts an external payment gateway.
type Provider interface {
	// Name returns the stable provider identifier used for routing and
	// for tagging payments with provider_name.
	Name() string

	// InitiatePayment starts a payment with the gateway. Called at most
	// once per payment per creation flow. A rejected or failed initiation
	// yields Status FAILED; network-level failures come back as errors.
	InitiatePayment(ctx context.Context, req InitiateRequest) (*Result, error)

	// CheckPaymentStatus polls the gateway for the current status of a
	// transaction. Used for reconciliation, not the webhook-driven path.
	CheckPaymentStatus(ctx context.Context, providerTxID string) (*Result, error)
}
