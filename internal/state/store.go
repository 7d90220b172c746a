// Package state holds the typed application-state container used to wire a
// storefront session together. The container owns no logic: reducers are
// plain functions over snapshots and must return new values rather than
// mutate slices they were given.
package state

import "sync"

// Store is a typed state container with read, subscribe and dispatch.
type Store[S any] struct {
	mu      sync.RWMutex
	current S
	subs    map[int]func(S)
	nextSub int
}

// New creates a store holding initial.
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		current: initial,
		subs:    make(map[int]func(S)),
	}
}

// Get returns the current snapshot.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch applies reduce to the current snapshot, stores the result and
// notifies subscribers with it. Subscribers run after the lock is released
// and may call Get or Dispatch themselves.
func (s *Store[S]) Dispatch(reduce func(S) S) S {
	s.mu.Lock()
	next := reduce(s.current)
	s.current = next
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn for every future dispatch. The returned function
// removes the subscription.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
