package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// DefaultRateLimitClients bounds how many client limiters are tracked. The
// least recently seen client is forgotten first.
const DefaultRateLimitClients = 10_000

// RateLimitConfig configures RateLimit. A non-positive RPS disables limiting.
type RateLimitConfig struct {
	RPS        float64
	Burst      int
	MaxClients int
}

// RateLimit returns middleware that enforces a per-client token bucket.
// Clients are identified by ClientIP. Requests over the limit get 429.
func RateLimit(cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.MaxClients < 1 {
		cfg.MaxClients = DefaultRateLimitClients
	}
	// Only fails for a non-positive size.
	clients, _ := lru.New(cfg.MaxClients)

	limiterFor := func(key string) *rate.Limiter {
		if v, ok := clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
		lim := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
		// Two first requests racing may each build a limiter; the later one wins.
		clients.Add(key, lim)
		return lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !limiterFor(ip).Allow() {
				l.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteError(w, r, apperrors.RateLimited("too many requests").WithKey("error.rate_limited"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first valid address in X-Forwarded-For, then
// X-Real-IP, then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
