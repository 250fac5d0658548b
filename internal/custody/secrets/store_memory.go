package secrets

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-memory secret backend for tests and dev mode.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]map[string]any
}

// NewMemoryStore builds an empty in-memory secret store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]map[string]any)}
}

func (s *MemoryStore) key(mount, path string) string {
	return mount + "/" + path
}

// Read returns a copy of the data at mount/path, or (nil, nil) when absent.
func (s *MemoryStore) Read(_ context.Context, mount, path string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.secrets[s.key(mount, path)]
	if !ok {
		return nil, nil
	}
	out := make(map[string]any, len(data))
	maps.Copy(out, data)
	return out, nil
}

// Write stores a copy of data at mount/path.
func (s *MemoryStore) Write(_ context.Context, mount, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[string]any, len(data))
	maps.Copy(stored, data)
	s.secrets[s.key(mount, path)] = stored
	return nil
}
