package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// ApplyDiscountRequest is the JSON body for applying a discount code. A blank
// code is answered like an unknown one.
type ApplyDiscountRequest struct {
	Code string `json:"code" validate:"max=64"`
}

// AddressRequest is the JSON body for the delivery address. Any field may be
// blank while the shopper is still filling the form in.
type AddressRequest struct {
	HouseNumber  string `json:"houseNumber" validate:"max=255"`
	ProvinceCode string `json:"provinceCode" validate:"max=16"`
	ProvinceName string `json:"provinceName" validate:"max=255"`
	WardCode     string `json:"wardCode" validate:"max=16"`
	WardName     string `json:"wardName" validate:"max=255"`
}

// GetCheckout handles GET /api/v1/storefront/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCheckout(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view, view.Warnings...)
}

// ApplyDiscount handles POST /api/v1/storefront/checkout/discount
func (h *CheckoutHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req ApplyDiscountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	quote, err := h.service.ApplyDiscount(r.Context(), middleware.SessionIDFromContext(r.Context()), req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, quote)
}

// RemoveDiscount handles DELETE /api/v1/storefront/checkout/discount
func (h *CheckoutHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.RemoveDiscount(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, st)
}

// SetAddress handles PUT /api/v1/storefront/checkout/address
func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	st, err := h.service.SetAddress(r.Context(), middleware.SessionIDFromContext(r.Context()), domain.Address{
		HouseNumber:  req.HouseNumber,
		ProvinceCode: req.ProvinceCode,
		ProvinceName: req.ProvinceName,
		WardCode:     req.WardCode,
		WardName:     req.WardName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var warnings []string
	if st.Shipping != nil {
		if msg := st.Shipping.Warning(); msg != "" {
			warnings = append(warnings, msg)
		}
	}
	httputil.WriteData(w, http.StatusOK, st, warnings...)
}

// QuoteShipping handles GET /api/v1/storefront/checkout/shipping-fee
func (h *CheckoutHandler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.QuoteShipping(r.Context(), middleware.SessionIDFromContext(r.Context()),
		q.Get("provinceCode"), q.Get("wardCode"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var warnings []string
	if msg := res.Warning(); msg != "" {
		warnings = append(warnings, msg)
	}
	httputil.WriteData(w, http.StatusOK, res, warnings...)
}

// CreateDraft handles POST /api/v1/storefront/checkout/draft
func (h *CheckoutHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.CreateDraft(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, draft, draft.Warnings...)
}
