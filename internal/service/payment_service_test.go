package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/ankunda/payflow/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

type paymentServiceDeps struct {
	payments *testutil.MockPaymentRepository
	webhooks *testutil.MockWebhookRepository
	catalog  *testutil.MockCatalogRepository
	tx       *testutil.MockTransactionManager
	locker   *testutil.MockLocker
	provider *testutil.MockProvider
}

func setupPaymentService() (*PaymentService, *paymentServiceDeps) {
	deps := &paymentServiceDeps{
		payments: testutil.NewMockPaymentRepository(),
		webhooks: testutil.NewMockWebhookRepository(),
		catalog:  testutil.NewMockCatalogRepository(),
		locker:   testutil.NewMockLocker(),
		provider: &testutil.MockProvider{ProviderName: "MTN_UGANDA"},
	}
	deps.tx = testutil.NewMockTransactionManager(deps.payments, deps.webhooks)
	testutil.SeedCatalog(deps.catalog)
	registry := providers.NewRegistry(deps.provider)

	svc := NewPaymentService(
		deps.payments,
		deps.webhooks,
		deps.catalog,
		deps.tx,
		deps.locker,
		registry,
		zerolog.Nop(),
		Options{},
	)
	return svc, deps
}

var referenceIDPattern = regexp.MustCompile(`^PAY-\d{13,}-[0-9A-Z]{8}$`)

// --- CreatePayment Tests ---

func TestCreatePayment_Success(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   50_000_00,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.NoError(t, err)
	assert.Regexp(t, referenceIDPattern, p.ReferenceID)
	assert.Equal(t, payment.StatusPending, p.Status)
	require.NotNil(t, p.ProviderName)
	assert.Equal(t, "MTN_UGANDA", *p.ProviderName)
	require.NotNil(t, p.ProviderTransactionID)
	assert.Equal(t, "TXN1", *p.ProviderTransactionID)
	assert.Equal(t, "UGX", p.Currency)
	assert.Equal(t, "MOBILE_MONEY", p.PaymentMethod)
	assert.Equal(t, 1, deps.provider.InitiateCalls)

	stored := deps.payments.GetStored(p.ReferenceID)
	require.NotNil(t, stored)
	assert.Equal(t, payment.StatusPending, stored.Status)
}

func TestCreatePayment_UnknownCurrency(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   10_000_00,
		Currency:      "XYZ",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrCurrencyNotFound)
	assert.Equal(t, 0, deps.payments.CreateCalls)
	assert.Equal(t, 0, deps.provider.InitiateCalls)
}

func TestCreatePayment_UnknownPaymentMethod(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   10_000_00,
		Currency:      "UGX",
		PaymentMethod: "CARD",
		CustomerPhone: "+256700000001",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentMethodNotFound)
	assert.Equal(t, 0, deps.payments.CreateCalls)
}

func TestCreatePayment_InvalidAmount(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   0,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.Error(t, err)
	var ve *domainErrors.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, deps.payments.CreateCalls)
}

func TestCreatePayment_ProviderError_FailsPayment(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	deps.provider.InitiatePaymentFunc = func(ctx context.Context, req providers.InitiateRequest) (*providers.Result, error) {
		return nil, domainErrors.ErrProviderUnavailable
	}

	p, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   10_000_00,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.NoError(t, err, "provider failure must yield a FAILED payment, not an error")
	assert.Equal(t, payment.StatusFailed, p.Status)
	require.NotNil(t, p.ProviderName)
	assert.Equal(t, "MTN_UGANDA", *p.ProviderName)
	assert.Nil(t, p.ProviderTransactionID)
}

func TestCreatePayment_ProviderRejected_FailsPayment(t *testing.T) {
	svc, deps := setupPaymentService()
	ctx := context.Background()

	deps.provider.InitiatePaymentFunc = func(ctx context.Context, req providers.InitiateRequest) (*providers.Result, error) {
		return &providers.Result{Status: payment.StatusFailed, Message: "insufficient funds"}, nil
	}

	p, err := svc.CreatePayment(ctx, CreatePaymentRequest{
		AmountCents:   10_000_00,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
}

func TestCreatePayment_ProviderNotRegistered(t *testing.T) {
	deps := &paymentServiceDeps{
		payments: testutil.NewMockPaymentRepository(),
		webhooks: testutil.NewMockWebhookRepository(),
		catalog:  testutil.NewMockCatalogRepository(),
		locker:   testutil.NewMockLocker(),
	}
	deps.tx = testutil.NewMockTransactionManager(deps.payments, deps.webhooks)
	testutil.SeedCatalog(deps.catalog)

	// Empty registry: the catalog routes MOBILE_MONEY to a provider
	// nobody registered.
	svc := NewPaymentService(
		deps.payments, deps.webhooks, deps.catalog, deps.tx, deps.locker,
		providers.NewRegistry(), zerolog.Nop(), Options{},
	)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{
		AmountCents:   10_000_00,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
	// The INITIATED record stays behind for inspection.
	assert.Equal(t, 1, deps.payments.CreateCalls)
}

// --- GetPaymentByReference Tests ---

func TestGetPaymentByReference_Success(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture()
	deps.payments.AddPayment(fixture)

	p, err := svc.GetPaymentByReference(context.Background(), fixture.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, fixture.ReferenceID, p.ReferenceID)
	assert.Equal(t, fixture.Status, p.Status)
}

func TestGetPaymentByReference_NotFound(t *testing.T) {
	svc, _ := setupPaymentService()

	_, err := svc.GetPaymentByReference(context.Background(), "PAY-0000000000000-NOSUCHID")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

// --- UpdatePaymentStatus Tests ---

func TestUpdatePaymentStatus_ValidTransition(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	p, err := svc.UpdatePaymentStatus(context.Background(), fixture.ReferenceID, payment.StatusSuccess, nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
	assert.Equal(t, payment.StatusSuccess, deps.payments.GetStored(fixture.ReferenceID).Status)
}

func TestUpdatePaymentStatus_InvalidTransition(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusSuccess))
	deps.payments.AddPayment(fixture)

	_, err := svc.UpdatePaymentStatus(context.Background(), fixture.ReferenceID, payment.StatusFailed, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
	assert.Equal(t, payment.StatusSuccess, deps.payments.GetStored(fixture.ReferenceID).Status)
}

func TestUpdatePaymentStatus_NotFound(t *testing.T) {
	svc, _ := setupPaymentService()

	_, err := svc.UpdatePaymentStatus(context.Background(), "PAY-0000000000000-NOSUCHID", payment.StatusSuccess, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

// --- HandleWebhook Tests ---

func webhookFor(p *payment.Payment, status payment.Status) WebhookRequest {
	return WebhookRequest{
		ReferenceID:           p.ReferenceID,
		Status:                status,
		ProviderTransactionID: "TXN1",
		Timestamp:             time.Now(),
	}
}

func TestHandleWebhook_Success(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	p, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)

	evt := deps.webhooks.GetStored(fixture.ReferenceID)
	require.NotNil(t, evt)
	assert.True(t, evt.IsProcessed)
	assert.Equal(t, "TXN1", evt.ProviderTransactionID)
	assert.Equal(t, payment.StatusSuccess, deps.payments.GetStored(fixture.ReferenceID).Status)
}

func TestHandleWebhook_DuplicateDelivery_NoAdditionalWrites(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)
	req := webhookFor(fixture, payment.StatusSuccess)

	first, err := svc.HandleWebhook(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, first.Status)

	updatesAfterFirst := deps.payments.UpdateCalls
	marksAfterFirst := deps.webhooks.MarkProcessedCalls

	// Identical redelivery: same outcome, zero additional writes.
	second, err := svc.HandleWebhook(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, second.Status)
	assert.Equal(t, updatesAfterFirst, deps.payments.UpdateCalls)
	assert.Equal(t, marksAfterFirst, deps.webhooks.MarkProcessedCalls)
}

func TestHandleWebhook_TerminalPayment_RejectsTransition(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusFailed))
	deps.payments.AddPayment(fixture)

	_, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)

	// Rolled back: the payment is untouched and no processed event exists.
	assert.Equal(t, payment.StatusFailed, deps.payments.GetStored(fixture.ReferenceID).Status)
	assert.Nil(t, deps.webhooks.GetStored(fixture.ReferenceID))
}

func TestHandleWebhook_UnknownPayment(t *testing.T) {
	svc, _ := setupPaymentService()

	_, err := svc.HandleWebhook(context.Background(), WebhookRequest{
		ReferenceID:           "PAY-0000000000000-NOSUCHID",
		Status:                payment.StatusSuccess,
		ProviderTransactionID: "TXN1",
		Timestamp:             time.Now(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestHandleWebhook_LockHeld_FailsFast(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)
	deps.locker.Hold("webhook:" + fixture.ReferenceID)

	_, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrWebhookInProgress)

	// Nothing was written while the lock was held elsewhere.
	assert.Equal(t, 0, deps.payments.UpdateCalls)
	assert.Equal(t, 0, deps.webhooks.MarkProcessedCalls)
	assert.Equal(t, payment.StatusPending, deps.payments.GetStored(fixture.ReferenceID).Status)
}

func TestHandleWebhook_ConcurrentDeliveries_OneProceeds(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	deps.webhooks.MarkProcessedFunc = func(ctx context.Context, event *payment.WebhookEvent) error {
		once.Do(func() {
			close(entered)
			<-proceed
		})
		deps.webhooks.MarkProcessedFunc = nil
		return deps.webhooks.MarkProcessed(ctx, event)
	}

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
		firstErr <- err
	}()

	// Wait until the first delivery holds the lock mid-transaction, then
	// fire the second. It must fail fast instead of queuing.
	<-entered
	_, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrWebhookInProgress)

	close(proceed)
	require.NoError(t, <-firstErr)
	assert.Equal(t, payment.StatusSuccess, deps.payments.GetStored(fixture.ReferenceID).Status)
}

func TestHandleWebhook_MidTransactionFailure_NothingPersists(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	// Fail after the event upsert but before the payment update.
	storeDown := errors.New("connection reset")
	deps.payments.UpdateByReferenceFunc = func(ctx context.Context, ref string, upd payment.Update) (*payment.Payment, error) {
		return nil, storeDown
	}

	_, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.Error(t, err)
	assert.ErrorIs(t, err, storeDown)

	// Both-or-neither: the event upsert rolled back with the failed update.
	assert.Nil(t, deps.webhooks.GetStored(fixture.ReferenceID))
	assert.Equal(t, payment.StatusPending, deps.payments.GetStored(fixture.ReferenceID).Status)

	// The lock was released; a retried delivery now succeeds.
	deps.payments.UpdateByReferenceFunc = nil
	p, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusSuccess))
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
}

func TestHandleWebhook_FailedStatus(t *testing.T) {
	svc, deps := setupPaymentService()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	p, err := svc.HandleWebhook(context.Background(), webhookFor(fixture, payment.StatusFailed))
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
}

// --- ListPayments Tests ---

func TestListPayments_FilterByStatus(t *testing.T) {
	svc, deps := setupPaymentService()
	deps.payments.AddPayment(testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending)))
	deps.payments.AddPayment(testutil.PaymentFixture(testutil.WithStatus(payment.StatusSuccess)))
	deps.payments.AddPayment(testutil.PaymentFixture(testutil.WithStatus(payment.StatusSuccess)))

	status := payment.StatusSuccess
	list, err := svc.ListPayments(context.Background(), payment.ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, p := range list {
		assert.Equal(t, payment.StatusSuccess, p.Status)
	}
}
