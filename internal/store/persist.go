package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var persistFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_session_persist_failures_total",
		Help: "Session snapshot writes that failed, by reason.",
	},
	[]string{"reason"},
)

// persistent reports whether the action changes state that a session snapshot keeps.
func persistent(a domain.Action) bool {
	if domain.IsCartAction(a) {
		return true
	}
	_, ok := a.(domain.UpdateFilter)
	return ok
}

// DefaultSaveTimeout bounds one snapshot write. The write is detached from
// the request context, so a client that hangs up cannot abort it halfway.
const DefaultSaveTimeout = 3 * time.Second

// persister writes the cart and filter back to the session repository
// before a dispatch that changes them becomes visible. It runs under the
// store's dispatch lock, so version needs no extra guarding.
type persister struct {
	sessionID string
	repo      repository.SessionRepository
	ttl       time.Duration
	timeout   time.Duration
	version   int
	logger    *slog.Logger
	onStale   func(sessionID string)
	now       func() time.Time
}

func (p *persister) commit(ctx context.Context, action domain.Action, next domain.State) error {
	if !persistent(action) {
		return nil
	}

	now := p.now().UTC()
	snap := &repository.SessionSnapshot{
		SessionID: p.sessionID,
		Cart:      next.Cart,
		Filter:    next.Products.Filter,
		UpdatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	ok, err := p.repo.SaveIfVersion(saveCtx, snap, p.version)
	switch {
	case err != nil:
		// The write may or may not have landed; the next Get rereads it.
		persistFailuresTotal.WithLabelValues("error").Inc()
		p.logger.ErrorContext(ctx, "failed to persist session",
			slog.String("session_id", p.sessionID),
			slog.String("action", action.Type()),
			slog.String("error", err.Error()),
		)
		p.onStale(p.sessionID)
		return apperrors.Unavailable("session could not be saved", err)
	case !ok:
		persistFailuresTotal.WithLabelValues("conflict").Inc()
		p.logger.WarnContext(ctx, "session modified elsewhere, dropping cached store",
			slog.String("session_id", p.sessionID),
			slog.Int("expected_version", p.version),
		)
		p.onStale(p.sessionID)
		return apperrors.Conflict("session was modified concurrently")
	}
	p.version = snap.Version
	return nil
}
