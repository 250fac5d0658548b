// Package memory provides an in-memory audit store for tests and dev mode.
package memory

import (
	"context"
	"sync"

	audit "custodia/pkg/platform/audit"
)

// Store keeps events in order of arrival.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

// New builds an empty store.
func New() *Store {
	return &Store{}
}

// Append records one event.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *Store) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}
