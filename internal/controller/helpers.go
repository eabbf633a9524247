package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err       error
	status    int
	code      string
	retryable bool
}

var errorMappings = []errorMapping{
	{domainErrors.ErrPaymentNotFound, http.StatusNotFound, "not_found", false},
	{domainErrors.ErrCurrencyNotFound, http.StatusNotFound, "currency_not_found", false},
	{domainErrors.ErrPaymentMethodNotFound, http.StatusNotFound, "payment_method_not_found", false},
	{domainErrors.ErrInvalidStateTransition, http.StatusBadRequest, "invalid_state_transition", false},
	{domainErrors.ErrWebhookInProgress, http.StatusConflict, "webhook_in_progress", true},
	{domainErrors.ErrDuplicateReference, http.StatusConflict, "duplicate_reference", false},
	{domainErrors.ErrDuplicateWebhookEvent, http.StatusConflict, "duplicate_webhook_event", false},
	{domainErrors.ErrProviderNotFound, http.StatusUnprocessableEntity, "provider_not_configured", false},
	{domainErrors.ErrProviderUnavailable, http.StatusServiceUnavailable, "provider_unavailable", true},
	{domainErrors.ErrLockAcquisitionFailed, http.StatusServiceUnavailable, "lock_unavailable", true},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", false},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden", false},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			resp.Retryable = m.retryable
			if m.err == domainErrors.ErrWebhookInProgress {
				resp.Error = "webhook already being processed, retry later"
			}
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
