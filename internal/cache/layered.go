package cache

import (
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/vouch/internal/model"
)

// LayeredCache implements a multi-layer cache (memory + persistent)
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache combines a fast front cache with a persistent one
func NewLayeredCache(memory, disk Cache) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		disk:   disk,
	}
}

// New builds the embedding cache described by cfg. It returns nil when
// caching is disabled. Without a directory only the memory layer is used.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	if cfg.Dir == "" {
		return memory, nil
	}

	disk, err := NewBadgerCache(cfg.Dir, cfg.DiskTTL)
	if err != nil {
		return nil, fmt.Errorf("persistent cache: %w", err)
	}
	return NewLayeredCache(memory, disk), nil
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		// Promote to memory cache
		_ = c.memory.Set(key, val, 0) // Use default TTL
		return val, true
	}

	return nil, false
}

// Set stores a value in both caches
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}

// Close closes any layer holding resources
func (c *LayeredCache) Close() error {
	if closer, ok := c.disk.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
