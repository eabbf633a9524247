package controller

import (
	"errors"
	"net/http"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/infrastructure/observability"
	"github.com/ankunda/payflow/internal/service"
)

// WebhookController receives provider payment notifications.
type WebhookController struct {
	paymentService *service.PaymentService
	metrics        *observability.Metrics
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(paymentService *service.PaymentService, metrics *observability.Metrics) *WebhookController {
	return &WebhookController{paymentService: paymentService, metrics: metrics}
}

// HandleWebhook handles POST /api/v1/webhooks/payment.
//
// Responses follow provider retry conventions: 200 means the delivery is
// applied (or was applied before, redeliveries included), 409 means try
// again later, anything else means the payload itself is bad.
func (h *WebhookController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req WebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}

	status, err := payment.ParseStatus(req.Status)
	if err != nil {
		h.metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}

	timestamp := time.Now()
	if req.Timestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Timestamp)
		if err != nil {
			h.metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
			writeError(w, domainErrors.NewValidationError("timestamp", "must be RFC 3339"))
			return
		}
		timestamp = parsed
	}

	p, err := h.paymentService.HandleWebhook(r.Context(), service.WebhookRequest{
		ReferenceID:           req.ReferenceID,
		Status:                status,
		ProviderTransactionID: req.ProviderTransactionID,
		Timestamp:             timestamp,
	})
	h.metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.recordFailure(err)
		writeError(w, err)
		return
	}

	h.metrics.WebhooksTotal.WithLabelValues("processed").Inc()
	writeJSON(w, http.StatusOK, FromPayment(p))
}

func (h *WebhookController) recordFailure(err error) {
	result := "failed"
	if isLockContention(err) {
		result = "contention"
		h.metrics.WebhookLockContention.Inc()
	}
	h.metrics.WebhooksTotal.WithLabelValues(result).Inc()
}

func isLockContention(err error) bool {
	return errors.Is(err, domainErrors.ErrWebhookInProgress)
}
