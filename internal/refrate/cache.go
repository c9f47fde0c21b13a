package refrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Cache stores the last known reference rate. Get reports false when no
// usable entry exists; a corrupt entry is treated as missing.
type Cache interface {
	Get(ctx context.Context, key string) (ReferenceRate, bool, error)
	Set(ctx context.Context, key string, rate ReferenceRate) error
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]ReferenceRate
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]ReferenceRate)}
}

// Get returns the entry stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) (ReferenceRate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.entries[key]
	return rate, ok, nil
}

// Set stores rate under key.
func (c *MemoryCache) Set(_ context.Context, key string, rate ReferenceRate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rate
	return nil
}

// FileCache keeps one JSON file per key in a directory.
type FileCache struct {
	dir string
	mu  sync.Mutex
}

// NewFileCache returns a FileCache rooted at dir. The directory is created on
// first write.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(c.dir, name+".json")
}

// Get reads the entry for key from disk.
func (c *FileCache) Get(_ context.Context, key string) (ReferenceRate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return ReferenceRate{}, false, nil
	}
	if err != nil {
		return ReferenceRate{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return decodeCached(data)
}

// Set writes the entry for key to disk atomically.
func (c *FileCache) Set(_ context.Context, key string, rate ReferenceRate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	target := c.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// RedisCache stores entries as JSON strings in Redis.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache connects a RedisCache to addr.
func NewRedisCache(addr string) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get fetches the entry for key.
func (c *RedisCache) Get(ctx context.Context, key string) (ReferenceRate, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ReferenceRate{}, false, nil
	}
	if err != nil {
		return ReferenceRate{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeCached(val)
}

// Set stores the entry for key without expiry; staleness is decided by the
// Provider from FetchedAt.
func (c *RedisCache) Set(ctx context.Context, key string, rate ReferenceRate) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func decodeCached(data []byte) (ReferenceRate, bool, error) {
	var rate ReferenceRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return ReferenceRate{}, false, nil
	}
	if rate.Validate() != nil || rate.Source == "" {
		return ReferenceRate{}, false, nil
	}
	return rate, true, nil
}
