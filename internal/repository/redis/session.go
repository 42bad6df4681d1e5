package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const keyPrefix = "storefront:session:"

// maxTxRetries bounds how often SaveIfVersion re-runs after a WATCH abort.
const maxTxRetries = 3

// SessionRepository implements repository.SessionRepository using Redis.
type SessionRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client redis.UniversalClient, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Get retrieves a session snapshot from Redis.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*repository.SessionSnapshot, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", sessionID)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	return decode(data)
}

// Save persists a snapshot to Redis with the configured TTL.
func (r *SessionRepository) Save(ctx context.Context, snap *repository.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(snap.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// SaveIfVersion writes the snapshot under WATCH so a concurrent writer from
// another replica aborts this transaction instead of being overwritten.
func (r *SessionRepository) SaveIfVersion(ctx context.Context, snap *repository.SessionSnapshot, expectedVersion int) (bool, error) {
	key := sessionKey(snap.SessionID)
	saved := false

	txf := func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get session: %w", err)
		default:
			stored, err := decode(data)
			if err != nil {
				return err
			}
			current = stored.Version
		}

		if current != expectedVersion {
			saved = false
			return nil
		}

		next := *snap
		next.Version = expectedVersion + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		snap.Version = next.Version
		saved = true
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("redis save session: %w", err)
		}
		return saved, nil
	}

	return false, nil
}

// Delete removes a session snapshot from Redis.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func decode(data []byte) (*repository.SessionSnapshot, error) {
	var snap repository.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &snap, nil
}
