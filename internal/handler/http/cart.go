package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/i18n"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.StorefrontService
	bundle  *i18n.Bundle
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.StorefrontService, bundle *i18n.Bundle, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		bundle:  bundle,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// SetQuantityRequest is the JSON request body for setting an item's quantity.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// --- Response DTOs ---

// CartResponse is a cart with localized summary labels.
type CartResponse struct {
	domain.CartState
	Summary CartSummary `json:"summary"`
}

// CartSummary carries display strings for the cart totals.
type CartSummary struct {
	ItemsLabel     string `json:"items_label"`
	TotalLabel     string `json:"total_label"`
	FormattedTotal string `json:"formatted_total"`
	EmptyMessage   string `json:"empty_message,omitempty"`
}

func (h *CartHandler) render(r *http.Request, cart domain.CartState) CartResponse {
	locale := logger.LocaleFromContext(r.Context())
	summary := CartSummary{
		ItemsLabel:     h.bundle.T(locale, i18n.KeyCartItems),
		TotalLabel:     h.bundle.T(locale, i18n.KeyCartTotal),
		FormattedTotal: cart.TotalAmount.String(),
	}
	if cart.IsEmpty() {
		summary.EmptyMessage = h.bundle.T(locale, i18n.KeyCartEmpty)
	}
	return CartResponse{CartState: cart, Summary: summary}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Cart(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.render(r, cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.service.AddToCart(r.Context(), sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.render(r, cart))
}

// SetItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.service.SetCartQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.render(r, cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveFromCart(r.Context(), sessionID(r), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.render(r, cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.render(r, cart))
}

func sessionID(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
