// Package store holds per-session application state. A Store owns one
// domain.State and applies actions to it one at a time.
package store

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
)

// Listener observes a completed dispatch. Listeners run synchronously on the
// dispatching goroutine and must not call Dispatch on the same store.
type Listener func(ctx context.Context, action domain.Action, prev, next domain.State)

// Committer makes a dispatch durable before it becomes visible. An error
// aborts the dispatch and leaves the state unchanged.
type Committer func(ctx context.Context, action domain.Action, next domain.State) error

// Decider picks the action to apply given the current state. A nil action
// leaves the state as it is.
type Decider func(current domain.State) (domain.Action, error)

// Option configures a Store.
type Option func(*Store)

// WithCommitter runs c on every dispatch, before subscribers see it.
func WithCommitter(c Committer) Option {
	return func(s *Store) { s.commit = c }
}

type subscription struct {
	id int
	fn Listener
}

// Store serializes dispatches over a single state snapshot.
type Store struct {
	dispatchMu sync.Mutex
	commit     Committer

	mu        sync.RWMutex
	state     domain.State
	listeners []subscription
	nextID    int
}

// New creates a store seeded with initial.
func New(initial domain.State, opts ...Option) *Store {
	s := &Store{state: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action through domain.Reduce and returns the new state.
// Subscribers are notified in registration order before Dispatch returns, so
// a second dispatch never interleaves with the notifications of the first.
// When the commit fails the previous state is returned; use Update to see
// the error.
func (s *Store) Dispatch(ctx context.Context, action domain.Action) domain.State {
	next, _ := s.Update(ctx, func(domain.State) (domain.Action, error) {
		return action, nil
	})
	return next
}

// Update runs decide against the current state and applies the action it
// returns, all under the dispatch lock. Checks made in decide therefore hold
// when the action lands. Errors from decide or from the committer are
// returned with the unchanged state.
func (s *Store) Update(ctx context.Context, decide Decider) (domain.State, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	prev := s.State()
	action, err := decide(prev)
	if err != nil || action == nil {
		return prev, err
	}

	next := domain.Reduce(prev, action)
	if s.commit != nil {
		if err := s.commit(ctx, action, next); err != nil {
			return prev, err
		}
	}

	s.mu.Lock()
	s.state = next
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(ctx, action, prev, next)
	}
	return next, nil
}

// Subscribe registers l and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
