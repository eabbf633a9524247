package catalog

import "context"

// Repository provides read-only access to the seeded reference data.
type Repository interface {
	// GetCurrencyByName resolves a currency by name.
	GetCurrencyByName(ctx context.Context, name string) (*Currency, error)

	// GetPaymentMethodByName resolves a payment method by name, including
	// its provider name.
	GetPaymentMethodByName(ctx context.Context, name string) (*PaymentMethod, error)

	// ListCurrencies returns all seeded currencies.
	ListCurrencies(ctx context.Context) ([]*Currency, error)

	// ListPaymentMethods returns all seeded payment methods.
	ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error)
}
