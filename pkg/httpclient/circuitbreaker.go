package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CircuitBreakerConfig configures the breaker in front of the product API.
type CircuitBreakerConfig struct {
	// Name labels the breaker in metrics, logs and errors.
	Name string `env:"PRODUCT_API_BREAKER_NAME" envDefault:"product-api"`

	// MaxRequests is how many probes pass while half-open.
	MaxRequests uint32 `env:"PRODUCT_API_BREAKER_MAX_REQUESTS" envDefault:"1"`

	// Interval clears the closed-state counts. 0 never clears them.
	Interval time.Duration `env:"PRODUCT_API_BREAKER_INTERVAL" envDefault:"60s"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `env:"PRODUCT_API_BREAKER_TIMEOUT" envDefault:"30s"`

	// FailureRatio trips the breaker once MinRequests have been seen.
	FailureRatio float64 `env:"PRODUCT_API_BREAKER_FAILURE_RATIO" envDefault:"0.5"`

	MinRequests uint32 `env:"PRODUCT_API_BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// DefaultCircuitBreakerConfig mirrors the env defaults above.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open).",
		},
		[]string{"upstream"},
	)

	breakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "upstream",
			Name:      "breaker_rejections_total",
			Help:      "Requests refused without being sent because the breaker was open.",
		},
		[]string{"upstream"},
	)
)

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ErrCircuitOpen is wrapped by every error returned for a refused request.
var ErrCircuitOpen = gobreaker.ErrOpenState

// CircuitBreakerClient is a Doer that stops calling an upstream after it
// keeps failing. 5xx responses and transport errors count as failures; 4xx
// responses do not.
type CircuitBreakerClient struct {
	client  Doer
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	name    string
}

// NewCircuitBreakerClient wraps client with a breaker configured by cfg.
func NewCircuitBreakerClient(client Doer, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker state change",
				slog.String("upstream", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &CircuitBreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// Do sends req unless the breaker is open. A refused request returns a 503
// AppError wrapping ErrCircuitOpen.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%s server error %d: %s", c.name, resp.StatusCode, body)
		}
		return resp, nil
	})
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejections.WithLabelValues(c.name).Inc()
		c.logger.WarnContext(ctx, "upstream request refused by open breaker",
			slog.String("upstream", c.name),
			slog.String("url", req.URL.String()),
		)
		return nil, apperrors.Unavailable(c.name+" is temporarily unavailable", err)
	}
	return resp, err
}

// Get performs a GET through the breaker.
func (c *CircuitBreakerClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// State reports the breaker state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
