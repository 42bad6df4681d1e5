package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/utafrali/storefront/internal/i18n"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	PprofCIDRs     []string
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	RateLimit      middleware.RateLimitConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc *service.StorefrontService,
	bundle *i18n.Bundle,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", middleware.MetricsHandler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(svc, bundle, logger)
	catalogHandler := NewCatalogHandler(svc, logger)
	i18nHandler := NewI18nHandler(bundle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Locale(bundle))
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Use(ContentTypeJSON)
		r.Use(SessionID(cfg.SessionTTL))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.SetItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.GetCatalog)
			r.Post("/load", catalogHandler.Load)
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Patch("/filter", catalogHandler.UpdateFilter)
			r.Delete("/error", catalogHandler.ClearError)
		})

		r.Get("/i18n/{locale}", i18nHandler.Messages)
	})

	return r
}
