package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.StorefrontService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// PriceRangeRequest is an inclusive price window in minor units.
type PriceRangeRequest struct {
	Min int64 `json:"min" validate:"gte=0"`
	Max int64 `json:"max" validate:"gte=0"`
}

// UpdateFilterRequest is a partial filter. Omitted fields keep their value.
type UpdateFilterRequest struct {
	Category   *string            `json:"category" validate:"omitempty,max=200"`
	PriceRange *PriceRangeRequest `json:"price_range"`
	Search     *string            `json:"search" validate:"omitempty,max=200"`
}

func (req UpdateFilterRequest) patch() domain.FilterPatch {
	p := domain.FilterPatch{
		Category: req.Category,
		Search:   req.Search,
	}
	if req.PriceRange != nil {
		p.PriceRange = &domain.PriceRange{
			Min: domain.Money(req.PriceRange.Min),
			Max: domain.Money(req.PriceRange.Max),
		}
	}
	return p
}

// Load handles POST /api/v1/catalog/load
func (h *CatalogHandler) Load(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.LoadCatalog(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

// GetCatalog handles GET /api/v1/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Catalog(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

// ListProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.VisibleProducts(r.Context(), sessionID(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GetProduct handles GET /api/v1/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ViewProduct(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// UpdateFilter handles PATCH /api/v1/catalog/filter
func (h *CatalogHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	var req UpdateFilterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	state, err := h.service.UpdateFilter(r.Context(), sessionID(r), req.patch())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state.Filter)
}

// ClearError handles DELETE /api/v1/catalog/error
func (h *CatalogHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.ClearError(r.Context(), sessionID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
