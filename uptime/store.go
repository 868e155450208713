package uptime

import (
	"context"
	"sync"
)

// Store persists the whole target set. Load returns targets in the order
// they were saved. Implementations must not leave a half-written set behind
// when Save fails; unreadable data should be set aside and reported as an
// empty set.
type Store interface {
	Load(ctx context.Context) ([]Target, error)
	Save(ctx context.Context, targets []Target) error
}

// MemoryStore keeps targets in process memory. It is the default Store.
type MemoryStore struct {
	mu      sync.Mutex
	targets []Target
}

func NewMemoryStore(targets ...Target) *MemoryStore {
	s := &MemoryStore{}
	s.targets = cloneAll(targets)
	return s
}

func (s *MemoryStore) Load(ctx context.Context) ([]Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.targets), nil
}

func (s *MemoryStore) Save(ctx context.Context, targets []Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = cloneAll(targets)
	return nil
}

func cloneAll(targets []Target) []Target {
	out := make([]Target, len(targets))
	for i, t := range targets {
		out[i] = t.Clone()
	}
	return out
}
