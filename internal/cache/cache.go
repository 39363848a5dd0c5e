// Package cache keeps encoded server configurations keyed by uuid so that
// repeated lookups skip the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/config"
)

// Cache stores encoded wire representations of servers
type Cache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, id uuid.UUID) ([]byte, bool, error)

	// Set stores a value, replacing any previous one
	Set(ctx context.Context, id uuid.UUID, value []byte) error

	// Delete removes a value; deleting a missing key is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// Close releases resources
	Close() error
}

// nopCache is used when caching is disabled
type nopCache struct{}

// NewNop returns a Cache that never stores anything
func NewNop() Cache { return nopCache{} }

func (nopCache) Get(context.Context, uuid.UUID) ([]byte, bool, error) { return nil, false, nil }
func (nopCache) Set(context.Context, uuid.UUID, []byte) error        { return nil }
func (nopCache) Delete(context.Context, uuid.UUID) error             { return nil }
func (nopCache) Close() error                                        { return nil }

// New creates the cache selected by cfg.Type.
func New(cfg config.CacheConfig) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Type {
	case "none", "":
		return NewNop(), nil
	case "memory":
		return NewMemoryCache(ttl), nil
	case "valkey":
		if cfg.ValkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when cache type is valkey")
		}
		return NewValkeyCache(cfg.ValkeyAddr, ttl)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s (supported: none, memory, valkey)", cfg.Type)
	}
}
