package scenesync

import "sync"

// Store keeps the most recent cycle for the admin API.
// Implementations must be safe for concurrent use: the loop writes while
// HTTP handlers read.
type Store interface {
	LastCycle() (Cycle, bool)
	SetLastCycle(c Cycle)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	mu   sync.RWMutex
	last *Cycle
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// LastCycle implements Store.LastCycle. ok is false before the first cycle.
func (s *InMemoryStore) LastCycle() (Cycle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Cycle{}, false
	}
	return *s.last, true
}

// SetLastCycle implements Store.SetLastCycle.
func (s *InMemoryStore) SetLastCycle(c Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &c
}
