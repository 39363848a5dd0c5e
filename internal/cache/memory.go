package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache implements an in-process cache with per-entry expiry
type MemoryCache struct {
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache. A ttl <= 0 keeps entries
// until they are deleted.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	slog.Info("Initialized in-memory server cache", "ttl", ttl.String())
	return c
}

// Get returns a copy of the cached value
func (c *MemoryCache) Get(ctx context.Context, id uuid.UUID) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed the entry
		if cur, ok := c.entries[id]; ok && cur.expires.Equal(entry.expires) {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

// Set stores a copy of value
func (c *MemoryCache) Set(ctx context.Context, id uuid.UUID, value []byte) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[id] = entry
	c.mu.Unlock()
	return nil
}

// Delete removes the entry for id
func (c *MemoryCache) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	return nil
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[uuid.UUID]memoryEntry)
	c.mu.Unlock()
	return nil
}
