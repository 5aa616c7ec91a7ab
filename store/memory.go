package store

import (
	"context"
	"sync"

	"docsum/types"
)

// MemoryStore keeps the summary in process memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	summary *types.Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, summary types.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &summary
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (types.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil || s.summary.Content == "" {
		return types.Summary{}, ErrNotFound
	}
	return *s.summary, nil
}

func (s *MemoryStore) Close() error { return nil }
