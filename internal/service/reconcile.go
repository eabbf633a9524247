package service

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/ankunda/payflow/pkg/retry"
)

// ReconcilePending polls the provider for payments stuck in PENDING longer
// than pendingAge and applies any terminal status it reports. This is the
// manual-reconciliation fallback for webhooks that never arrived, and it
// covers the window where initiation succeeded but the post-initiation
// update was lost.
//
// Returns the number of payments moved to a terminal state.
func (s *PaymentService) ReconcilePending(ctx context.Context, pendingAge time.Duration, batchSize int) (int, error) {
	stale, err := s.payments.ListStalePending(ctx, time.Now().Add(-pendingAge), batchSize)
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for _, p := range stale {
		if p.ProviderName == nil || p.ProviderTransactionID == nil {
			// Never routed; nothing to poll.
			continue
		}

		prov, breaker, err := s.registry.Get(*p.ProviderName)
		if err != nil {
			s.logger.Error().Err(err).Str("reference_id", p.ReferenceID).Msg("reconcile: provider not registered")
			continue
		}

		result, err := retry.DoWithResult(ctx, retry.Config{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		}, func() (*providers.Result, error) {
			return breaker.Execute(func() (*providers.Result, error) {
				callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
				defer cancel()
				return prov.CheckPaymentStatus(callCtx, *p.ProviderTransactionID)
			})
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("reference_id", p.ReferenceID).Msg("reconcile: status check failed")
			continue
		}

		if result.Status != payment.StatusSuccess && result.Status != payment.StatusFailed {
			continue // still pending at the provider
		}

		if _, err := s.UpdatePaymentStatus(ctx, p.ReferenceID, result.Status, p.ProviderTransactionID); err != nil {
			// A webhook may have landed between the listing and here, in
			// which case the payment is already terminal.
			if errors.Is(err, domainErrors.ErrInvalidStateTransition) {
				continue
			}
			s.logger.Error().Err(err).Str("reference_id", p.ReferenceID).Msg("reconcile: update failed")
			continue
		}
		reconciled++
	}
	return reconciled, nil
}
