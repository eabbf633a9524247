package testutil

import (
	"time"

	"github.com/ankunda/payflow/internal/domain/catalog"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/google/uuid"
)

// SeedCatalog loads the standard reference data used across the test suite:
// UGX currency, MOBILE_MONEY method routed to MTN_UGANDA, AIRTEL_MONEY
// routed to AIRTEL_UGANDA.
func SeedCatalog(repo *MockCatalogRepository) {
	now := time.Now()
	repo.Currencies["UGX"] = &catalog.Currency{ID: 1, Name: "UGX", CreatedAt: now}
	repo.Currencies["KES"] = &catalog.Currency{ID: 2, Name: "KES", CreatedAt: now}
	repo.Methods["MOBILE_MONEY"] = &catalog.PaymentMethod{
		ID: 1, Name: "MOBILE_MONEY", ProviderID: 1, ProviderName: "MTN_UGANDA", CreatedAt: now,
	}
	repo.Methods["AIRTEL_MONEY"] = &catalog.PaymentMethod{
		ID: 2, Name: "AIRTEL_MONEY", ProviderID: 2, ProviderName: "AIRTEL_UGANDA", CreatedAt: now,
	}
}

// PaymentFixture builds a payment with sensible defaults, overridable via opts.
func PaymentFixture(opts ...func(*payment.Payment)) *payment.Payment {
	now := time.Now()
	providerName := "MTN_UGANDA"
	txID := "TXN1"
	p := &payment.Payment{
		ID:                    uuid.New(),
		ReferenceID:           payment.NewReferenceID(),
		CustomerPhone:         "+256700000001",
		AmountCents:           50_000_00,
		Status:                payment.StatusPending,
		ProviderName:          &providerName,
		ProviderTransactionID: &txID,
		CurrencyID:            1,
		Currency:              "UGX",
		PaymentMethodID:       1,
		PaymentMethod:         "MOBILE_MONEY",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithStatus overrides the payment status.
func WithStatus(s payment.Status) func(*payment.Payment) {
	return func(p *payment.Payment) { p.Status = s }
}

// WithReference overrides the payment reference id.
func WithReference(ref string) func(*payment.Payment) {
	return func(p *payment.Payment) { p.ReferenceID = ref }
}

// WithUpdatedAt overrides the last-modified timestamp.
func WithUpdatedAt(t time.Time) func(*payment.Payment) {
	return func(p *payment.Payment) { p.UpdatedAt = t }
}
