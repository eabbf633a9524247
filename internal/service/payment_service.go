package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankunda/payflow/internal/domain/catalog"
	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/rs/zerolog"
)

const webhookLockPrefix = "webhook:"

// Options tunes the service's timeouts.
type Options struct {
	// ProviderTimeout bounds every outbound provider call.
	ProviderTimeout time.Duration
	// WebhookLockTTL is the lease on the per-reference webhook lock.
	WebhookLockTTL time.Duration
}

func (o *Options) withDefaults() {
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 8 * time.Second
	}
	if o.WebhookLockTTL <= 0 {
		o.WebhookLockTTL = 10 * time.Second
	}
}

// PaymentService drives the payment lifecycle: creation, provider
// initiation, explicit status updates and idempotent webhook processing.
// It holds no payment state in memory; every operation re-reads from the
// store, which is what makes running several replicas safe.
type PaymentService struct {
	payments payment.Repository
	webhooks payment.WebhookRepository
	catalog  catalog.Repository
	tx       TransactionManager
	locker   Locker
	registry *providers.Registry
	logger   zerolog.Logger
	opts     Options
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	payments payment.Repository,
	webhooks payment.WebhookRepository,
	catalogRepo catalog.Repository,
	tx TransactionManager,
	locker Locker,
	registry *providers.Registry,
	logger zerolog.Logger,
	opts Options,
) *PaymentService {
	opts.withDefaults()
	return &PaymentService{
		payments: payments,
		webhooks: webhooks,
		catalog:  catalogRepo,
		tx:       tx,
		locker:   locker,
		registry: registry,
		logger:   logger,
		opts:     opts,
	}
}

// CreatePaymentRequest holds the input for creating a payment.
type CreatePaymentRequest struct {
	AmountCents   int64
	Currency      string
	PaymentMethod string
	CustomerPhone string
	CustomerEmail *string
}

// WebhookRequest is a provider webhook delivery.
type WebhookRequest struct {
	ReferenceID           string
	Status                payment.Status
	ProviderTransactionID string
	Timestamp             time.Time
}

// CreatePayment resolves the catalog references, persists an INITIATED
// payment, synchronously initiates it with the routed provider and persists
// the outcome. A provider failure yields a FAILED payment, not an error:
// the record exists and must end in a queryable state.
//
// If the process dies between the INITIATED insert and the post-initiation
// update, the record stays INITIATED; the reconciler picks up the slack via
// provider status polling.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	cur, err := s.catalog.GetCurrencyByName(ctx, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	method, err := s.catalog.GetPaymentMethodByName(ctx, req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	p, err := payment.New(req.CustomerPhone, req.CustomerEmail, req.AmountCents, cur.ID, cur.Name, method.ID, method.Name)
	if err != nil {
		return nil, err
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment %s: %w", p.ReferenceID, err)
	}

	prov, breaker, err := s.registry.Get(method.ProviderName)
	if err != nil {
		// Configuration error: the catalog routes to a provider nobody
		// registered. The INITIATED record stays behind for inspection.
		return nil, fmt.Errorf("create payment %s: %w", p.ReferenceID, err)
	}

	result, callErr := breaker.Execute(func() (*providers.Result, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
		defer cancel()
		return prov.InitiatePayment(callCtx, providers.InitiateRequest{
			ReferenceID:   p.ReferenceID,
			AmountCents:   p.AmountCents,
			Currency:      p.Currency,
			CustomerPhone: p.CustomerPhone,
			CustomerEmail: p.CustomerEmail,
		})
	})

	newStatus := payment.StatusFailed
	var providerTxID *string
	if callErr != nil {
		s.logger.Warn().Err(callErr).
			Str("reference_id", p.ReferenceID).
			Str("provider", prov.Name()).
			Msg("provider initiation failed")
	} else {
		newStatus = result.Status
		if result.ProviderTransactionID != "" {
			providerTxID = &result.ProviderTransactionID
		}
	}

	providerName := prov.Name()
	updated, err := s.applyTransition(ctx, p.ReferenceID, newStatus, &providerName, providerTxID)
	if err != nil {
		return nil, fmt.Errorf("create payment %s: %w", p.ReferenceID, err)
	}

	s.logger.Info().
		Str("reference_id", updated.ReferenceID).
		Str("status", string(updated.Status)).
		Str("provider", providerName).
		Msg("payment created")
	return updated, nil
}

// GetPaymentByReference retrieves a payment by its reference.
func (s *PaymentService) GetPaymentByReference(ctx context.Context, ref string) (*payment.Payment, error) {
	p, err := s.payments.GetByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", ref, err)
	}
	return p, nil
}

// ListPayments lists payments with filters.
func (s *PaymentService) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	return s.payments.List(ctx, filter)
}

// UpdatePaymentStatus is the explicit transition path. It validates the
// move against the same transition table the webhook path uses, inside a
// transaction holding the payment row lock, so it cannot race a concurrent
// webhook on the same reference.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, ref string, newStatus payment.Status, providerTxID *string) (*payment.Payment, error) {
	updated, err := s.applyTransition(ctx, ref, newStatus, nil, providerTxID)
	if err != nil {
		return nil, fmt.Errorf("update payment status %s: %w", ref, err)
	}
	s.logger.Info().
		Str("reference_id", ref).
		Str("status", string(newStatus)).
		Msg("payment status updated")
	return updated, nil
}

// HandleWebhook processes a provider webhook delivery exactly once.
//
// The distributed lock serializes concurrent deliveries for the same
// reference; a second delivery arriving while the first is in flight fails
// fast with ErrWebhookInProgress and the provider retries later. Already
// processed deliveries short-circuit and return the current payment
// unchanged. The event upsert and the payment update commit together or
// not at all.
func (s *PaymentService) HandleWebhook(ctx context.Context, req WebhookRequest) (*payment.Payment, error) {
	release, acquired, err := s.locker.Acquire(ctx, webhookLockPrefix+req.ReferenceID, s.opts.WebhookLockTTL)
	if err != nil {
		return nil, fmt.Errorf("handle webhook %s: %w", req.ReferenceID, err)
	}
	if !acquired {
		return nil, domainErrors.NewDomainError(
			"webhook_in_progress",
			fmt.Sprintf("webhook for payment %s is already being processed", req.ReferenceID),
			domainErrors.ErrWebhookInProgress,
		)
	}
	defer func() {
		// Release must run even when the request context is already dead.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("reference_id", req.ReferenceID).Msg("webhook lock release failed")
		}
	}()

	// Idempotency fast path: a processed event means this delivery was
	// fully applied before. Return the payment as-is, no side effects.
	evt, err := s.webhooks.GetByPaymentReference(ctx, req.ReferenceID)
	if err == nil && evt.IsProcessed {
		p, err := s.payments.GetByReference(ctx, req.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("handle webhook %s: processed event without payment: %w", req.ReferenceID, err)
		}
		s.logger.Debug().Str("reference_id", req.ReferenceID).Msg("webhook already processed")
		return p, nil
	}
	if err != nil && !errors.Is(err, domainErrors.ErrWebhookEventNotFound) {
		return nil, fmt.Errorf("handle webhook %s: %w", req.ReferenceID, err)
	}

	var updated *payment.Payment
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.payments.LockByReference(txCtx, req.ReferenceID)
		if err != nil {
			return err
		}

		// Same validation routine as the explicit path. Rejects duplicate
		// terminal webhooks that raced past the fast path and out-of-order
		// deliveries alike.
		if err := p.TransitionTo(req.Status); err != nil {
			return err
		}

		event := payment.NewWebhookEvent(req.ReferenceID, req.ProviderTransactionID, req.Status, req.Timestamp)
		if err := s.webhooks.MarkProcessed(txCtx, event); err != nil {
			return err
		}

		updated, err = s.payments.UpdateByReference(txCtx, req.ReferenceID, payment.Update{
			Status:                &req.Status,
			ProviderTransactionID: &req.ProviderTransactionID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("handle webhook %s: %w", req.ReferenceID, err)
	}

	s.logger.Info().
		Str("reference_id", req.ReferenceID).
		Str("status", string(req.Status)).
		Str("provider_transaction_id", req.ProviderTransactionID).
		Msg("webhook processed")
	return updated, nil
}

// applyTransition validates and persists a status transition while holding
// the payment row lock. Every mutating path funnels through here.
func (s *PaymentService) applyTransition(ctx context.Context, ref string, newStatus payment.Status, providerName, providerTxID *string) (*payment.Payment, error) {
	var updated *payment.Payment
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.payments.LockByReference(txCtx, ref)
		if err != nil {
			return err
		}
		if err := p.TransitionTo(newStatus); err != nil {
			return err
		}
		updated, err = s.payments.UpdateByReference(txCtx, ref, payment.Update{
			Status:                &newStatus,
			ProviderName:          providerName,
			ProviderTransactionID: providerTxID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
