package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/config"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	id := uuid.New()

	if _, ok, _ := c.Get(ctx, id); ok {
		t.Fatal("expected miss on empty cache")
	}

	value := []byte(`{"uuid":"x"}`)
	if err := c.Set(ctx, id, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X' // caller mutation must not leak into the cache

	got, ok, err := c.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(got) != `{"uuid":"x"}` {
		t.Errorf("Get = %s", got)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Second)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	id := uuid.New()
	c.Set(ctx, id, []byte("v"))

	now = now.Add(500 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, id); !ok {
		t.Fatal("entry expired too early")
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Error("entry should have expired")
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	c := NewNop()
	id := uuid.New()
	c.Set(ctx, id, []byte("v"))
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Error("nop cache should never hit")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantErr bool
	}{
		{"none", config.CacheConfig{Type: "none"}, false},
		{"empty", config.CacheConfig{}, false},
		{"memory", config.CacheConfig{Type: "memory", TTLSeconds: 60}, false},
		{"valkey without address", config.CacheConfig{Type: "valkey"}, true},
		{"unknown", config.CacheConfig{Type: "redis-cluster"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}

	c, _ := New(config.CacheConfig{Type: "memory", TTLSeconds: 60})
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("memory cache type = %T", c)
	}
}
