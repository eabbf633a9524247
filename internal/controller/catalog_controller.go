package controller

import (
	"net/http"

	"github.com/ankunda/payflow/internal/domain/catalog"
)

// CatalogController exposes the seeded reference data so clients can
// discover supported currencies and payment methods.
type CatalogController struct {
	catalog catalog.Repository
}

// NewCatalogController creates a new CatalogController.
func NewCatalogController(catalogRepo catalog.Repository) *CatalogController {
	return &CatalogController{catalog: catalogRepo}
}

// ListCurrencies handles GET /api/v1/currencies
func (h *CatalogController) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.catalog.ListCurrencies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*CurrencyResponse, 0, len(currencies))
	for _, c := range currencies {
		resp = append(resp, FromCurrency(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPaymentMethods handles GET /api/v1/payment-methods
func (h *CatalogController) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalog.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, FromPaymentMethod(m))
	}
	writeJSON(w, http.StatusOK, resp)
}
