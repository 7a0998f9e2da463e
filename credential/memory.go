package credential

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	s.token, s.set = token, true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.token, s.set = "", false
	s.mu.Unlock()
	return nil
}
