package state

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the in-memory store.
const DefaultMemoryEntries = 4096

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local StateStore. Entries expire after their own
// ttl or maxTTL, whichever is sooner, and the least recently used entry is
// evicted once size is reached.
type MemoryStore struct {
	cache *expirable.LRU[string, entry]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most size entries for at most
// maxTTL each. A non-positive maxTTL disables the cache-wide expiry.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	if maxTTL < 0 {
		maxTTL = 0
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
