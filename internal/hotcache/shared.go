package hotcache

import "sync"

// Shared is a lock-guarded record referenced by the cache map and by any
// number of external holders.
type Shared[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewShared wraps value in a fresh cell.
func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{value: value}
}

// Get returns a copy of the current value.
func (s *Shared[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the current value.
func (s *Shared[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

// Update runs fn with exclusive access to the value.
func (s *Shared[T]) Update(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}
