package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCleanupInterval = time.Minute

// MemoryStore is the in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

// NewMemoryStore constructs an in-process store. Expired items are evicted every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// IncrementWithTTL increments the counter stored at key. The window starts with the first increment.
func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, expiresAt, found := s.items.GetWithExpiration(key)
	if !found {
		s.items.Set(key, int64(1), window)
		return 1, window, nil
	}

	count, err := s.items.IncrementInt64(key, 1)
	if err != nil {
		// A non-counter value occupies the key; restart the window.
		s.items.Set(key, int64(1), window)
		return 1, window, nil
	}

	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() || ttl <= 0 {
		ttl = window
	}
	return count, ttl, nil
}

// Set stores a copy of value. A non-positive ttl keeps the item until it is deleted.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	s.items.Set(key, buf, ttl)
	return nil
}

// Get returns a copy of the value stored at key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, found := s.items.Get(key)
	if !found {
		return nil, false, nil
	}
	value, ok := raw.([]byte)
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, true, nil
}

// Delete removes keys from the store.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}

// Flush drops every item.
func (s *MemoryStore) Flush() {
	s.items.Flush()
}
