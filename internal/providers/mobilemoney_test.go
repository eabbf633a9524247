package providers_test

import (
	"context"
	"testing"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMobileMoney_InitiatePayment(t *testing.T) {
	p := providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(time.Millisecond))

	res, err := p.InitiatePayment(context.Background(), providers.InitiateRequest{
		ReferenceID:   "PAY-1700000000000-ABCD1234",
		AmountCents:   100000,
		Currency:      "UGX",
		CustomerPhone: "+256700000000",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, res.Status)
	assert.NotEmpty(t, res.ProviderTransactionID)
	assert.Contains(t, res.ProviderTransactionID, "MM-")
}

func TestMobileMoney_InitiatePayment_BadMSISDN(t *testing.T) {
	p := providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(time.Millisecond))

	res, err := p.InitiatePayment(context.Background(), providers.InitiateRequest{
		ReferenceID:   "PAY-1700000000000-ABCD1234",
		AmountCents:   100000,
		Currency:      "UGX",
		CustomerPhone: "0700000000",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, res.Status)
	assert.Empty(t, res.ProviderTransactionID)
}

func TestMobileMoney_InitiatePayment_AlwaysFails(t *testing.T) {
	p := providers.NewMobileMoneyProvider("MTN_UGANDA",
		providers.WithLatency(time.Millisecond),
		providers.WithFailureRate(1.0),
	)

	res, err := p.InitiatePayment(context.Background(), providers.InitiateRequest{
		ReferenceID:   "PAY-1700000000000-ABCD1234",
		AmountCents:   100000,
		Currency:      "UGX",
		CustomerPhone: "+256700000000",
	})
	assert.ErrorIs(t, err, domainErrors.ErrProviderRejected)
	require.NotNil(t, res)
	assert.Equal(t, payment.StatusFailed, res.Status)
}

func TestMobileMoney_InitiatePayment_ContextCancelled(t *testing.T) {
	p := providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.InitiatePayment(ctx, providers.InitiateRequest{
		ReferenceID:   "PAY-1700000000000-ABCD1234",
		CustomerPhone: "+256700000000",
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMobileMoney_CheckPaymentStatus(t *testing.T) {
	p := providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(time.Millisecond))

	res, err := p.CheckPaymentStatus(context.Background(), "MM-ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, res.Status)
	assert.Equal(t, "MM-ABCD1234", res.ProviderTransactionID)

	_, err = p.CheckPaymentStatus(context.Background(), "")
	assert.Error(t, err)
}
