package catalog

import "time"

// Currency is a reference-data row seeded at deployment.
type Currency struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// PaymentMethod references the provider that serves it. Resolved by name at
// payment-creation time.
type PaymentMethod struct {
	ID           int64
	Name         string
	ProviderID   int64
	ProviderName string
	CreatedAt    time.Time
}

// Provider is an external payment gateway known to the system. The name is
// the routing key into the provider registry.
type Provider struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
