package controller

import (
	"net/http"
	"strconv"

	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/service"
	"github.com/go-chi/chi/v5"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	paymentService *service.PaymentService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.CreatePayment(r.Context(), service.CreatePaymentRequest{
		AmountCents:   floatToCents(req.Amount),
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromPayment(p))
}

// GetPayment handles GET /api/v1/payments/{reference}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing payment reference", Code: "invalid_reference"})
		return
	}

	p, err := h.paymentService.GetPaymentByReference(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := payment.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := payment.ParseStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Status = &status
	}
	if s := r.URL.Query().Get("provider"); s != "" {
		filter.Provider = &s
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.paymentService.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /api/v1/payments/{reference}/status
func (h *PaymentController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")

	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := payment.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.UpdatePaymentStatus(r.Context(), ref, status, req.ProviderTransactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}
