package providers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/google/uuid"
)

// MobileMoneyProvider simulates a mobile-money gateway (MTN, Airtel). It
// accepts an initiation and reports PENDING; the customer confirmation then
// arrives asynchronously via webhook. Failure and latency are configurable
// for load and chaos testing.
type MobileMoneyProvider struct {
	name        string
	latency     time.Duration
	failureRate float64 // 0.0 to 1.0
	timeoutRate float64 // 0.0 to 1.0
}

type MobileMoneyOption func(*MobileMoneyProvider)

func WithLatency(d time.Duration) MobileMoneyOption {
	return func(p *MobileMoneyProvider) { p.latency = d }
}

func WithFailureRate(rate float64) MobileMoneyOption {
	return func(p *MobileMoneyProvider) { p.failureRate = rate }
}

func WithTimeoutRate(rate float64) MobileMoneyOption {
	return func(p *MobileMoneyProvider) { p.timeoutRate = rate }
}

// NewMobileMoneyProvider creates a simulated mobile-money adapter.
func NewMobileMoneyProvider(name string, opts ...MobileMoneyOption) *MobileMoneyProvider {
	p := &MobileMoneyProvider{
		name:    name,
		latency: 100 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *MobileMoneyProvider) Name() string { return p.name }

func (p *MobileMoneyProvider) InitiatePayment(ctx context.Context, req InitiateRequest) (*Result, error) {
	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if rand.Float64() < p.timeoutRate {
		return nil, domainErrors.ErrProviderTimeout
	}

	if req.CustomerPhone == "" || !strings.HasPrefix(req.CustomerPhone, "+") {
		return &Result{
			Status:  payment.StatusFailed,
			Message: fmt.Sprintf("%s: invalid msisdn for payment %s", p.name, req.ReferenceID),
		}, nil
	}

	if rand.Float64() < p.failureRate {
		return &Result{
			Status:  payment.StatusFailed,
			Message: fmt.Sprintf("%s: simulated initiation failure for payment %s", p.name, req.ReferenceID),
		}, domainErrors.ErrProviderRejected
	}

	return &Result{
		ProviderTransactionID: fmt.Sprintf("MM-%s", strings.ToUpper(uuid.New().String()[:8])),
		Status:                payment.StatusPending,
		Message:               "awaiting customer confirmation",
	}, nil
}

func (p *MobileMoneyProvider) CheckPaymentStatus(ctx context.Context, providerTxID string) (*Result, error) {
	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if providerTxID == "" {
		return nil, domainErrors.NewValidationError("provider_transaction_id", "cannot be empty")
	}

	if rand.Float64() < p.failureRate {
		return &Result{
			ProviderTransactionID: providerTxID,
			Status:                payment.StatusFailed,
			Message:               "customer declined",
		}, nil
	}

	return &Result{
		ProviderTransactionID: providerTxID,
		Status:                payment.StatusSuccess,
		Message:               "settled",
	}, nil
}
