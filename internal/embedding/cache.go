package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the optional embedding cache: append-only, keyed by
// SHA-256(text). Two backends are provided: an in-process bounded LRU and a
// Redis-backed one for multi-process deployments.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, vec []float32)
}

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is a bounded, TTL-less in-process cache with LRU-by-access
// eviction.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	access  map[string]time.Time
	maxSize int
}

func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]float32),
		access:  make(map[string]time.Time),
		maxSize: maxSize,
	}
}

func (c *MemoryCache) Get(_ context.Context, text string) ([]float32, bool) {
	key := hashKey(text)
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.access[key] = time.Now()
		c.mu.Unlock()
	}
	return v, ok
}

func (c *MemoryCache) Set(_ context.Context, text string, vec []float32) {
	key := hashKey(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = vec
	c.access[key] = time.Now()
}

func (c *MemoryCache) evictOldest() {
	type item struct {
		key string
		at  time.Time
	}
	items := make([]item, 0, len(c.access))
	for k, t := range c.access {
		items = append(items, item{k, t})
	}
	for i := 0; i < len(items)-1; i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].at.After(items[j].at) {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	remove := len(items) / 5
	if remove == 0 && len(items) > 0 {
		remove = 1
	}
	for i := 0; i < remove; i++ {
		delete(c.entries, items[i].key)
		delete(c.access, items[i].key)
	}
}

// RedisCache stores embeddings in Redis under an "emb:" prefix with a TTL,
// for sharing the cache across ingestion workers.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "emb:"}
}

func (c *RedisCache) Get(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, c.prefix+hashKey(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *RedisCache) Set(ctx context.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+hashKey(text), raw, c.ttl)
}
