package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var lookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_session_store_lookups_total",
		Help: "Session store lookups by result (hit, hydrated, failed).",
	},
	[]string{"result"},
)

// Registry keeps the most recently used session stores in memory. A miss
// hydrates a new store from the session repository whose committer writes
// cart and filter changes back before they become visible.
type Registry struct {
	cache  *lru.Cache
	group  singleflight.Group
	repo   repository.SessionRepository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	hydrateTimeout time.Duration
	saveTimeout    time.Duration
}

// DefaultHydrateTimeout bounds the repository read behind a cache miss.
const DefaultHydrateTimeout = 3 * time.Second

// NewRegistry creates a registry holding at most size stores.
func NewRegistry(size int, repo repository.SessionRepository, ttl time.Duration, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,

		hydrateTimeout: DefaultHydrateTimeout,
		saveTimeout:    DefaultSaveTimeout,
	}
	cache, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		r.logger.Debug("session store evicted", slog.Any("session_id", key))
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Get returns the store for sessionID, hydrating it on a miss. Concurrent
// misses for the same session share one hydration.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if v, ok := r.cache.Get(sessionID); ok {
		lookupsTotal.WithLabelValues("hit").Inc()
		return v.(*Store), nil
	}

	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if v, ok := r.cache.Get(sessionID); ok {
			return v, nil
		}
		// Waiters share this flight, so it must outlive the caller that started it.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.hydrateTimeout)
		defer cancel()
		st, err := r.hydrate(hctx, sessionID)
		if err != nil {
			return nil, err
		}
		r.cache.Add(sessionID, st)
		return st, nil
	})
	if err != nil {
		lookupsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	lookupsTotal.WithLabelValues("hydrated").Inc()
	return v.(*Store), nil
}

func (r *Registry) hydrate(ctx context.Context, sessionID string) (*Store, error) {
	state := domain.NewState()
	version := 0

	snap, err := r.repo.Get(ctx, sessionID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	default:
		state.Cart = snap.Cart
		state.Products.Filter = snap.Filter
		version = snap.Version
	}

	p := &persister{
		sessionID: sessionID,
		repo:      r.repo,
		ttl:       r.ttl,
		timeout:   r.saveTimeout,
		version:   version,
		logger:    r.logger,
		now:       r.now,
	}
	st := New(state, WithCommitter(p.commit))
	p.onStale = func(id string) { r.removeIfSame(id, st) }

	r.logger.DebugContext(ctx, "session store hydrated",
		slog.String("session_id", sessionID),
		slog.Int("version", version),
		slog.Int("cart_items", state.Cart.TotalItems),
	)
	return st, nil
}

// Remove drops the cached store for sessionID. The next Get rehydrates it.
func (r *Registry) Remove(sessionID string) {
	r.cache.Remove(sessionID)
}

func (r *Registry) removeIfSame(sessionID string, st *Store) {
	if v, ok := r.cache.Peek(sessionID); ok && v.(*Store) == st {
		r.cache.Remove(sessionID)
	}
}

// Len returns the number of cached stores.
func (r *Registry) Len() int {
	return r.cache.Len()
}
