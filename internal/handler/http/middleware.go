package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/i18n"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

// SessionCookie stores the session ID for browser clients.
const SessionCookie = "sf_session"

const maxSessionIDLen = 128

// SessionID resolves the caller's session from the X-Session-ID header or
// the session cookie, minting a new one when neither is present. The ID is
// echoed back in both so clients can keep it.
func SessionID(cookieTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(middleware.SessionHeader))
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = strings.TrimSpace(c.Value)
				}
			}
			if id == "" {
				id = uuid.NewString()
			}
			if !validSessionID(id) {
				httputil.WriteError(w, r, apperrors.InvalidInput("malformed session id").
					WithKey(string(i18n.KeyErrSessionRequired)), nil)
				return
			}

			w.Header().Set(middleware.SessionHeader, id)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := logger.WithSessionID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validSessionID(id string) bool {
	if len(id) > maxSessionIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Locale resolves the request locale and installs a translator for error
// messages.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag, persist := bundle.Resolve(r)
			if persist {
				i18n.SetCookie(w, tag)
			}
			locale := tag.String()
			w.Header().Set("Content-Language", locale)

			ctx := logger.WithLocale(r.Context(), locale)
			ctx = httputil.WithTranslator(ctx, func(key, fallback string) string {
				return bundle.Translate(locale, key, fallback)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
