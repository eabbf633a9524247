package controller

import (
	"time"

	"github.com/ankunda/payflow/internal/domain/catalog"
	"github.com/ankunda/payflow/internal/domain/payment"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, validation tags).
// Controllers convert these to service layer DTOs before calling business logic.

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Currency      string  `json:"currency" validate:"required,len=3"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	CustomerPhone string  `json:"customer_phone" validate:"required,e164"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// WebhookRequest is the payload providers POST on payment completion.
type WebhookRequest struct {
	ReferenceID           string  `json:"reference_id" validate:"required"`
	Status                string  `json:"status" validate:"required"`
	ProviderTransactionID string  `json:"provider_transaction_id" validate:"required"`
	Timestamp             *string `json:"timestamp,omitempty"`
}

// UpdateStatusRequest holds the input for an explicit status transition.
type UpdateStatusRequest struct {
	Status                string  `json:"status" validate:"required"`
	ProviderTransactionID *string `json:"provider_transaction_id,omitempty"`
}

// --- Response DTOs ---

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID                    string    `json:"id"`
	ReferenceID           string    `json:"reference_id"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	PaymentMethod         string    `json:"payment_method"`
	Status                string    `json:"status"`
	CustomerPhone         string    `json:"customer_phone"`
	CustomerEmail         *string   `json:"customer_email,omitempty"`
	ProviderName          *string   `json:"provider_name,omitempty"`
	ProviderTransactionID *string   `json:"provider_transaction_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CurrencyResponse represents a supported currency.
type CurrencyResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PaymentMethodResponse represents a supported payment method.
type PaymentMethodResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

// --- Conversion helpers ---

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                    p.ID.String(),
		ReferenceID:           p.ReferenceID,
		Amount:                centsToFloat(p.AmountCents),
		Currency:              p.Currency,
		PaymentMethod:         p.PaymentMethod,
		Status:                string(p.Status),
		CustomerPhone:         p.CustomerPhone,
		CustomerEmail:         p.CustomerEmail,
		ProviderName:          p.ProviderName,
		ProviderTransactionID: p.ProviderTransactionID,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

// FromCurrency converts a catalog currency to API response.
func FromCurrency(c *catalog.Currency) *CurrencyResponse {
	return &CurrencyResponse{ID: c.ID, Name: c.Name}
}

// FromPaymentMethod converts a catalog payment method to API response.
func FromPaymentMethod(m *catalog.PaymentMethod) *PaymentMethodResponse {
	return &PaymentMethodResponse{ID: m.ID, Name: m.Name, Provider: m.ProviderName}
}

// floatToCents converts a float major-unit amount to cents.
func floatToCents(f float64) int64 {
	return int64(f*100 + 0.5)
}

// centsToFloat converts cents to a float major-unit amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
