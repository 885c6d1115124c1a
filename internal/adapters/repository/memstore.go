package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/wudao/pkg/metrics"
)

type slot[V any] struct {
	value    V
	lastSeen time.Time
}

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]*slot[V]
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore[V any](opts ...Option) *MemoryStore[V] {
	cfg := storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore[V]{
		items: make(map[string]*slot[V]),
		now:   cfg.now,
	}
}

// Put inserts or replaces the value for id.
func (s *MemoryStore[V]) Put(_ context.Context, id string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &slot[V]{value: v, lastSeen: s.now()}
	metrics.UpdateActiveSessions(len(s.items))
}

// Get returns the value for id and refreshes its idle timer.
func (s *MemoryStore[V]) Get(_ context.Context, id string) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	it.lastSeen = s.now()
	return it.value, nil
}

// Delete removes id.
func (s *MemoryStore[V]) Delete(_ context.Context, id string) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	delete(s.items, id)
	metrics.UpdateActiveSessions(len(s.items))
	return it.value, nil
}

// Count returns the number of stored sessions.
func (s *MemoryStore[V]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Expire removes sessions idle for at least ttl. A non-positive ttl expires nothing.
func (s *MemoryStore[V]) Expire(_ context.Context, now time.Time, ttl time.Duration) []V {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*slot[V]
	for id, it := range s.items {
		if now.Sub(it.lastSeen) >= ttl {
			expired = append(expired, it)
			delete(s.items, id)
		}
	}
	if len(expired) == 0 {
		return nil
	}
	metrics.UpdateActiveSessions(len(s.items))

	sort.SliceStable(expired, func(i, j int) bool { return expired[i].lastSeen.Before(expired[j].lastSeen) })
	out := make([]V, len(expired))
	for i, it := range expired {
		out[i] = it.value
	}
	return out
}

// Clear removes every session.
func (s *MemoryStore[V]) Clear(_ context.Context) []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]V, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.value)
	}
	clear(s.items)
	metrics.UpdateActiveSessions(0)
	return out
}
