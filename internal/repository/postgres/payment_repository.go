package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// paymentColumns is the select list shared by every payment read. Currency,
// payment method and provider names are resolved on the read side so callers
// never need a second lookup.
const paymentColumns = `p.id, p.reference_id, p.customer_phone, p.customer_email,
	        p.amount, p.status, p.provider_name, p.provider_transaction_id,
	        p.currency_id, c.name, p.payment_method_id, m.name,
	        p.created_at, p.updated_at`

const paymentJoins = `
	 FROM payments p
	 JOIN currencies c ON c.id = p.currency_id
	 JOIN payment_methods m ON m.id = p.payment_method_id`

// PaymentRepository implements payment.Repository using PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment. A duplicate reference trips the unique
// constraint; an unknown currency or payment method id trips a foreign key.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments
		 (id, reference_id, customer_phone, customer_email, amount, status,
		  provider_name, provider_transaction_id, currency_id, payment_method_id,
		  created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.ReferenceID, p.CustomerPhone, p.CustomerEmail,
		centsToNumericString(p.AmountCents), string(p.Status),
		p.ProviderName, p.ProviderTransactionID, p.CurrencyID, p.PaymentMethodID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return fmt.Errorf("reference %s: %w", p.ReferenceID, domainErrors.ErrDuplicateReference)
			case "23503":
				return domainErrors.NewValidationError("payment", "unknown currency or payment method")
			}
		}
		return fmt.Errorf("insert payment %s: %w", p.ReferenceID, err)
	}
	return nil
}

// GetByReference retrieves a payment by its client-facing reference.
func (r *PaymentRepository) GetByReference(ctx context.Context, ref string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+paymentJoins+` WHERE p.reference_id = $1`, ref))
}

// LockByReference reads the payment with a row lock on the payments row.
// Every mutating path takes this lock inside its transaction, so two
// concurrent transitions on the same reference cannot both validate against
// the same stale status.
func (r *PaymentRepository) LockByReference(ctx context.Context, ref string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+paymentJoins+` WHERE p.reference_id = $1 FOR UPDATE OF p`, ref))
}

// UpdateByReference applies a partial update and returns the updated payment.
func (r *PaymentRepository) UpdateByReference(ctx context.Context, ref string, upd payment.Update) (*payment.Payment, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now()}
	argIdx := 2

	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*upd.Status))
		argIdx++
	}
	if upd.ProviderName != nil {
		sets = append(sets, fmt.Sprintf("provider_name = $%d", argIdx))
		args = append(args, *upd.ProviderName)
		argIdx++
	}
	if upd.ProviderTransactionID != nil {
		sets = append(sets, fmt.Sprintf("provider_transaction_id = $%d", argIdx))
		args = append(args, *upd.ProviderTransactionID)
		argIdx++
	}

	query := fmt.Sprintf("UPDATE payments SET %s WHERE reference_id = $%d", strings.Join(sets, ", "), argIdx)
	args = append(args, ref)

	tag, err := r.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update payment %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("payment %s: %w", ref, domainErrors.ErrPaymentNotFound)
	}

	return r.GetByReference(ctx, ref)
}

// List lists payments with optional filters.
func (r *PaymentRepository) List(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + paymentJoins + ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.Status != nil {
		query += fmt.Sprintf(" AND p.status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}
	if f.Provider != nil {
		query += fmt.Sprintf(" AND p.provider_name = $%d", argIdx)
		args = append(args, *f.Provider)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	return r.queryPayments(ctx, query, args...)
}

// ListStalePending returns PENDING payments last touched before the cutoff.
func (r *PaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+paymentJoins+`
		 WHERE p.status = $1 AND p.updated_at < $2
		 ORDER BY p.updated_at ASC LIMIT $3`,
		string(payment.StatusPending), cutoff, limit)
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*payment.Payment, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// scanPayment scans a payment from any source implementing the scanner interface.
func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{}
	var (
		amountStr string
		status    string
	)
	err := s.Scan(
		&p.ID, &p.ReferenceID, &p.CustomerPhone, &p.CustomerEmail,
		&amountStr, &status, &p.ProviderName, &p.ProviderTransactionID,
		&p.CurrencyID, &p.Currency, &p.PaymentMethodID, &p.PaymentMethod,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	p.AmountCents = cents
	p.Status = payment.Status(status)
	return p, nil
}
