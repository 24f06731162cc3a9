package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a bounded in-process Store for single-instance deployments
// and tests. Entries expire at the earlier of their own TTL and maxTTL.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryStore builds a store holding at most size entries.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(entry.value), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{value: clone(value)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, entry)
	return nil
}

func (s *MemoryStore) GetDel(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	s.cache.Remove(key)
	return entry.value, nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// lookup must be called with mu held.
func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	entry, ok := s.cache.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.cache.Remove(key)
		return memoryEntry{}, false
	}
	return entry, true
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
