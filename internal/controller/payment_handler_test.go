package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
	"github.com/ankunda/payflow/internal/service"
	"github.com/ankunda/payflow/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerDeps struct {
	payments *testutil.MockPaymentRepository
	webhooks *testutil.MockWebhookRepository
	provider *testutil.MockProvider
	locker   *testutil.MockLocker
}

func setupRouter() (*chi.Mux, *handlerDeps) {
	deps := &handlerDeps{
		payments: testutil.NewMockPaymentRepository(),
		webhooks: testutil.NewMockWebhookRepository(),
		provider: &testutil.MockProvider{ProviderName: "MTN_UGANDA"},
		locker:   testutil.NewMockLocker(),
	}
	catalogRepo := testutil.NewMockCatalogRepository()
	testutil.SeedCatalog(catalogRepo)
	txManager := testutil.NewMockTransactionManager(deps.payments, deps.webhooks)
	registry := providers.NewRegistry(deps.provider)

	svc := service.NewPaymentService(
		deps.payments, deps.webhooks, catalogRepo, txManager, deps.locker,
		registry, zerolog.Nop(), service.Options{},
	)

	paymentH := NewPaymentController(svc)
	webhookH := NewWebhookController(svc, testMetrics())
	catalogH := NewCatalogController(catalogRepo)

	r := chi.NewRouter()
	r.Post("/api/v1/payments", paymentH.CreatePayment)
	r.Get("/api/v1/payments", paymentH.ListPayments)
	r.Get("/api/v1/payments/{reference}", paymentH.GetPayment)
	r.Patch("/api/v1/payments/{reference}/status", paymentH.UpdateStatus)
	r.Post("/api/v1/webhooks/payment", webhookH.HandleWebhook)
	r.Get("/api/v1/currencies", catalogH.ListCurrencies)
	r.Get("/api/v1/payment-methods", catalogH.ListPaymentMethods)
	return r, deps
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentController_CreatePayment(t *testing.T) {
	router, _ := setupRouter()

	w := postJSON(t, router, "/api/v1/payments", CreatePaymentRequest{
		Amount:        50000.00,
		Currency:      "UGX",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody[PaymentResponse](t, w.Body)
	assert.Regexp(t, `^PAY-`, resp.ReferenceID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, 50000.00, resp.Amount)
	assert.Equal(t, "UGX", resp.Currency)
	require.NotNil(t, resp.ProviderName)
	assert.Equal(t, "MTN_UGANDA", *resp.ProviderName)
}

func TestPaymentController_CreatePayment_UnknownCurrency(t *testing.T) {
	router, _ := setupRouter()

	w := postJSON(t, router, "/api/v1/payments", CreatePaymentRequest{
		Amount:        100,
		Currency:      "XYZ",
		PaymentMethod: "MOBILE_MONEY",
		CustomerPhone: "+256700000001",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeBody[ErrorResponse](t, w.Body)
	assert.Equal(t, "currency_not_found", resp.Code)
}

func TestPaymentController_CreatePayment_InvalidBody(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader([]byte(`{"amount":`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_GetPayment(t *testing.T) {
	router, deps := setupRouter()
	fixture := testutil.PaymentFixture()
	deps.payments.AddPayment(fixture)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+fixture.ReferenceID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[PaymentResponse](t, w.Body)
	assert.Equal(t, fixture.ReferenceID, resp.ReferenceID)
}

func TestPaymentController_GetPayment_NotFound(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/PAY-0000000000000-NOSUCHID", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentController_ListPayments_StatusFilter(t *testing.T) {
	router, deps := setupRouter()
	deps.payments.AddPayment(testutil.PaymentFixture(testutil.WithStatus(payment.StatusSuccess)))
	deps.payments.AddPayment(testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?status=SUCCESS", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[[]PaymentResponse](t, w.Body)
	require.Len(t, resp, 1)
	assert.Equal(t, "SUCCESS", resp[0].Status)
}

func TestPaymentController_ListPayments_BadStatus(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?status=BOGUS", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_UpdateStatus(t *testing.T) {
	router, deps := setupRouter()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusPending))
	deps.payments.AddPayment(fixture)

	body, _ := json.Marshal(UpdateStatusRequest{Status: "SUCCESS"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/payments/"+fixture.ReferenceID+"/status", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[PaymentResponse](t, w.Body)
	assert.Equal(t, "SUCCESS", resp.Status)
}

func TestPaymentController_UpdateStatus_InvalidTransition(t *testing.T) {
	router, deps := setupRouter()
	fixture := testutil.PaymentFixture(testutil.WithStatus(payment.StatusSuccess))
	deps.payments.AddPayment(fixture)

	body, _ := json.Marshal(UpdateStatusRequest{Status: "FAILED"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/payments/"+fixture.ReferenceID+"/status", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody[ErrorResponse](t, w.Body)
	assert.Equal(t, "invalid_state_transition", resp.Code)
}

func TestCatalogController_ListCurrencies(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[[]CurrencyResponse](t, w.Body)
	assert.NotEmpty(t, resp)
}

func TestCatalogController_ListPaymentMethods(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment-methods", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[[]PaymentMethodResponse](t, w.Body)
	assert.NotEmpty(t, resp)
}
