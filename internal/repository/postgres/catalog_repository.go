package postgres

import (
	"context"
	"fmt"

	"github.com/ankunda/payflow/internal/domain/catalog"
	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository implements catalog.Repository using PostgreSQL. The
// tables it reads are seeded by migrations and never written at runtime.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetCurrencyByName resolves a currency by name.
func (r *CatalogRepository) GetCurrencyByName(ctx context.Context, name string) (*catalog.Currency, error) {
	c := &catalog.Currency{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM currencies WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("currency %q: %w", name, domainErrors.ErrCurrencyNotFound)
		}
		return nil, fmt.Errorf("get currency %q: %w", name, err)
	}
	return c, nil
}

// GetPaymentMethodByName resolves a payment method and its provider name.
func (r *CatalogRepository) GetPaymentMethodByName(ctx context.Context, name string) (*catalog.PaymentMethod, error) {
	m := &catalog.PaymentMethod{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT m.id, m.name, m.provider_id, pr.name, m.created_at
		 FROM payment_methods m
		 JOIN payment_providers pr ON pr.id = m.provider_id
		 WHERE m.name = $1`, name,
	).Scan(&m.ID, &m.Name, &m.ProviderID, &m.ProviderName, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("payment method %q: %w", name, domainErrors.ErrPaymentMethodNotFound)
		}
		return nil, fmt.Errorf("get payment method %q: %w", name, err)
	}
	return m, nil
}

// ListCurrencies returns all seeded currencies.
func (r *CatalogRepository) ListCurrencies(ctx context.Context) ([]*catalog.Currency, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT id, name, created_at FROM currencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Currency
	for rows.Next() {
		c := &catalog.Currency{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListPaymentMethods returns all seeded payment methods.
func (r *CatalogRepository) ListPaymentMethods(ctx context.Context) ([]*catalog.PaymentMethod, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT m.id, m.name, m.provider_id, pr.name, m.created_at
		 FROM payment_methods m
		 JOIN payment_providers pr ON pr.id = m.provider_id
		 ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var out []*catalog.PaymentMethod
	for rows.Next() {
		m := &catalog.PaymentMethod{}
		if err := rows.Scan(&m.ID, &m.Name, &m.ProviderID, &m.ProviderName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
