package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// VariantRequest selects a size/color combination.
type VariantRequest struct {
	Size  string `json:"size" validate:"max=64"`
	Color string `json:"color" validate:"max=64"`
}

func (v *VariantRequest) toDomain() *domain.Variant {
	if v == nil {
		return nil
	}
	return &domain.Variant{Size: v.Size, Color: v.Color}
}

// AddLineRequest is the JSON body for adding a product to the cart.
type AddLineRequest struct {
	Slug     string          `json:"slug" validate:"notblank,max=255"`
	Variant  *VariantRequest `json:"variant"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=100"`
}

// UpdateLineRequest is the JSON body for changing a line's quantity.
type UpdateLineRequest struct {
	ProductID string          `json:"productId" validate:"notblank"`
	Variant   *VariantRequest `json:"variant"`
	Delta     int             `json:"delta" validate:"ne=0,gte=-100,lte=100"`
}

// RemoveLineRequest is the JSON body for removing one line.
type RemoveLineRequest struct {
	ProductID string          `json:"productId" validate:"notblank"`
	Variant   *VariantRequest `json:"variant"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/storefront/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// AddLine handles POST /api/v1/storefront/cart/lines
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), middleware.SessionIDFromContext(r.Context()), service.AddItemInput{
		Slug:     req.Slug,
		Variant:  req.Variant.toDomain(),
		Quantity: req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// UpdateLine handles PATCH /api/v1/storefront/cart/lines
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req UpdateLineRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()),
		req.ProductID, req.Variant.toDomain(), req.Delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// RemoveLine handles DELETE /api/v1/storefront/cart/lines
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	var req RemoveLineRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.RemoveLine(r.Context(), middleware.SessionIDFromContext(r.Context()),
		req.ProductID, req.Variant.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// RemoveProduct handles DELETE /api/v1/storefront/cart/products/{productId}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveProduct(r.Context(), middleware.SessionIDFromContext(r.Context()),
		chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/v1/storefront/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}
