package providers_test

import (
	"context"
	"testing"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	mtn := providers.NewMobileMoneyProvider("MTN_UGANDA", providers.WithLatency(time.Millisecond))
	airtel := providers.NewMobileMoneyProvider("AIRTEL_UGANDA", providers.WithLatency(time.Millisecond))
	reg := providers.NewRegistry(mtn, airtel)

	p, breaker, err := reg.Get("MTN_UGANDA")
	require.NoError(t, err)
	assert.Equal(t, "MTN_UGANDA", p.Name())
	require.NotNil(t, breaker)

	// The breaker passes calls through while closed.
	res, err := breaker.Execute(func() (*providers.Result, error) {
		return p.InitiatePayment(context.Background(), providers.InitiateRequest{
			ReferenceID:   "PAY-1700000000000-ABCD1234",
			CustomerPhone: "+256700000000",
		})
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ProviderTransactionID)
}

func TestRegistry_Get_Unknown(t *testing.T) {
	reg := providers.NewRegistry()

	_, _, err := reg.Get("PESAPAL")
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
}

func TestRegistry_Names(t *testing.T) {
	reg := providers.NewRegistry(
		providers.NewMobileMoneyProvider("MTN_UGANDA"),
	)
	assert.Equal(t, []string{"MTN_UGANDA"}, reg.Names())
}
