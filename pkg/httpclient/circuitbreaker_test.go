package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func breakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      100 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

// upstream answers with status until it is switched to healthy.
type upstream struct {
	status  atomic.Int32
	hits    atomic.Int32
	healthy atomic.Bool
}

func newUpstream(t *testing.T, status int) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{}
	u.status.Store(int32(status))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if u.healthy.Load() {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(int(u.status.Load()))
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func newBreaker(name string) *CircuitBreakerClient {
	return NewCircuitBreakerClient(New(Config{Timeout: time.Second}), breakerConfig(name), testLogger())
}

func TestCircuitBreaker_PassesHealthyResponses(t *testing.T) {
	u, srv := newUpstream(t, http.StatusOK)
	u.healthy.Store(true)
	cb := newBreaker("cb-healthy")

	resp, err := cb.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_FailureClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantState gobreaker.State
	}{
		{"5xx trips", http.StatusBadGateway, gobreaker.StateOpen},
		{"4xx does not trip", http.StatusNotFound, gobreaker.StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newUpstream(t, tt.status)
			cb := newBreaker("cb-" + tt.name)

			for range 3 {
				resp, err := cb.Get(context.Background(), srv.URL)
				if err == nil {
					_ = resp.Body.Close()
				}
			}
			assert.Equal(t, tt.wantState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpenRefusesWithoutCallingUpstream(t *testing.T) {
	u, srv := newUpstream(t, http.StatusServiceUnavailable)
	name := "cb-refuse"
	cb := newBreaker(name)

	for range 3 {
		_, _ = cb.Get(context.Background(), srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())
	hits := u.hits.Load()
	rejectedBefore := testutil.ToFloat64(breakerRejections.WithLabelValues(name))

	_, err := cb.Get(context.Background(), srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
	assert.Equal(t, hits, u.hits.Load(), "open breaker must not reach the upstream")
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(breakerRejections.WithLabelValues(name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(breakerState.WithLabelValues(name)))
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	u, srv := newUpstream(t, http.StatusInternalServerError)
	cb := newBreaker("cb-recover")

	for range 3 {
		_, _ = cb.Get(context.Background(), srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	u.healthy.Store(true)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

	resp, err := cb.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	_, srv := newUpstream(t, http.StatusOK)
	cb := newBreaker("cb-cancel")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Get(ctx, srv.URL)
	assert.Error(t, err)
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("product-api")

	assert.Equal(t, "product-api", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
