package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// SessionSnapshot is the part of a browsing session that outlives the
// process: the cart and the catalog filter. Catalog lists are reloaded from
// the product source instead.
type SessionSnapshot struct {
	SessionID string               `json:"session_id"`
	Cart      domain.CartState     `json:"cart"`
	Filter    domain.CatalogFilter `json:"filter"`
	Version   int                  `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// SessionRepository defines the interface for session persistence operations.
type SessionRepository interface {
	// Get retrieves a session snapshot by its ID.
	Get(ctx context.Context, sessionID string) (*SessionSnapshot, error)

	// Save persists a snapshot, overwriting any existing one for the session.
	Save(ctx context.Context, snap *SessionSnapshot) error

	// SaveIfVersion persists the snapshot only when the stored version equals
	// expectedVersion (0 means "not stored yet"). On success the snapshot's
	// Version is set to expectedVersion+1. It reports false on a mismatch.
	SaveIfVersion(ctx context.Context, snap *SessionSnapshot, expectedVersion int) (bool, error)

	// Delete removes a session snapshot.
	Delete(ctx context.Context, sessionID string) error

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}
