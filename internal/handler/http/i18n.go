package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/i18n"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// MessagesResponse is a locale's full message table.
type MessagesResponse struct {
	Locale   string              `json:"locale"`
	Messages map[i18n.Key]string `json:"messages"`
}

// I18nHandler serves message tables to clients.
type I18nHandler struct {
	bundle *i18n.Bundle
}

// NewI18nHandler creates a new i18n HTTP handler.
func NewI18nHandler(bundle *i18n.Bundle) *I18nHandler {
	return &I18nHandler{bundle: bundle}
}

// Messages handles GET /api/v1/i18n/{locale}
func (h *I18nHandler) Messages(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	if !h.bundle.Supports(locale) {
		httputil.WriteError(w, r, apperrors.NotFound("locale", locale), nil)
		return
	}
	httputil.WriteData(w, http.StatusOK, MessagesResponse{
		Locale:   locale,
		Messages: h.bundle.Messages(locale),
	})
}
