package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// ValkeyCache implements a shared cache using Valkey.
// The database stays the source of truth; entries expire after ttl.
type ValkeyCache struct {
	client valkey.Client
	prefix string // Key prefix: "serverconf:server:"
	ttl    time.Duration
}

// NewValkeyCache connects to Valkey and verifies the connection
func NewValkeyCache(addr string, ttl time.Duration) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	c := NewValkeyCacheWithClient(client, ttl)
	slog.Info("Initialized Valkey server cache",
		"address", addr,
		"key_prefix", c.prefix,
		"ttl", ttl.String())
	return c, nil
}

// NewValkeyCacheWithClient wraps an existing client
func NewValkeyCacheWithClient(client valkey.Client, ttl time.Duration) *ValkeyCache {
	return &ValkeyCache{
		client: client,
		prefix: "serverconf:server:",
		ttl:    ttl,
	}
}

func (c *ValkeyCache) key(id uuid.UUID) string {
	return c.prefix + id.String()
}

// Get fetches the cached value; a missing key is a miss, not an error
func (c *ValkeyCache) Get(ctx context.Context, id uuid.UUID) ([]byte, bool, error) {
	cmd := c.client.B().Get().Key(c.key(id)).Build()
	value, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return value, true, nil
}

// Set stores value with the configured expiry
func (c *ValkeyCache) Set(ctx context.Context, id uuid.UUID, value []byte) error {
	var cmd valkey.Completed
	if c.ttl > 0 {
		seconds := int64(c.ttl / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		cmd = c.client.B().Set().Key(c.key(id)).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	} else {
		cmd = c.client.B().Set().Key(c.key(id)).Value(valkey.BinaryString(value)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	slog.Debug("Server cached", "uuid", id, "key", c.key(id))
	return nil
}

// Delete removes the cached value
func (c *ValkeyCache) Delete(ctx context.Context, id uuid.UUID) error {
	cmd := c.client.B().Del().Key(c.key(id)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the Valkey connection
func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
