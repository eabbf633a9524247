package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookRepository implements payment.WebhookRepository using PostgreSQL.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByPaymentReference retrieves the idempotency record for a payment.
func (r *WebhookRepository) GetByPaymentReference(ctx context.Context, ref string) (*payment.WebhookEvent, error) {
	e := &payment.WebhookEvent{}
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, payment_reference_id, provider_transaction_id, status,
		        event_timestamp, is_processed, created_at, updated_at
		 FROM webhook_events WHERE payment_reference_id = $1`, ref,
	).Scan(&e.ID, &e.PaymentReferenceID, &e.ProviderTransactionID, &status,
		&e.Timestamp, &e.IsProcessed, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("payment %s: %w", ref, domainErrors.ErrWebhookEventNotFound)
		}
		return nil, fmt.Errorf("get webhook event for %s: %w", ref, err)
	}
	e.Status = payment.Status(status)
	return e, nil
}

// MarkProcessed upserts the event keyed by payment reference and flags it
// processed. Runs inside the combined webhook transaction so the flag flips
// atomically with the payment update.
func (r *WebhookRepository) MarkProcessed(ctx context.Context, event *payment.WebhookEvent) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO webhook_events
		 (id, payment_reference_id, provider_transaction_id, status,
		  event_timestamp, is_processed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		 ON CONFLICT (payment_reference_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   is_processed = TRUE,
		   updated_at = EXCLUDED.updated_at`,
		event.ID, event.PaymentReferenceID, event.ProviderTransactionID,
		string(event.Status), event.Timestamp, event.CreatedAt, time.Now(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// provider_transaction_id carries its own unique constraint; a
		// conflict there means the same provider transaction was reported
		// against a different payment.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("payment %s: %w", event.PaymentReferenceID, domainErrors.ErrDuplicateWebhookEvent)
		}
		return fmt.Errorf("mark webhook event processed for %s: %w", event.PaymentReferenceID, err)
	}
	return nil
}
