package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskdeck/api/internal/cache"
	"github.com/taskdeck/api/internal/domain/identity"
)

// IdentityCache holds recently verified identities keyed by token
// fingerprint. Both backends are best effort: a cache failure is a miss,
// never an error.
type IdentityCache interface {
	Get(ctx context.Context, key string) (identity.Identity, bool)
	Set(ctx context.Context, key string, id identity.Identity, ttl time.Duration)
}

type RedisIdentityCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisIdentityCache(rdb *redis.Client) *RedisIdentityCache {
	return &RedisIdentityCache{
		rdb:    rdb,
		prefix: "session:",
	}
}

func (c *RedisIdentityCache) Get(ctx context.Context, key string) (identity.Identity, bool) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()

	if err != nil {
		return identity.Identity{}, false
	}

	var id identity.Identity

	err = json.Unmarshal(b, &id)

	if err != nil || id.UserID == "" {
		return identity.Identity{}, false
	}

	return id, true
}

func (c *RedisIdentityCache) Set(ctx context.Context, key string, id identity.Identity, ttl time.Duration) {
	b, err := json.Marshal(id)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, c.prefix+key, b, ttl).Err()
}

// MemoryIdentityCache adapts the in-process TTL cache for deployments
// without redis. The TTL is fixed at construction, so the per-call ttl is
// ignored here.
type MemoryIdentityCache struct {
	c *cache.Cache
}

func NewMemoryIdentityCache(ttl time.Duration) *MemoryIdentityCache {
	return &MemoryIdentityCache{c: cache.New(ttl)}
}

func (m *MemoryIdentityCache) Get(ctx context.Context, key string) (identity.Identity, bool) {
	v, ok := m.c.Get(key)

	if !ok {
		return identity.Identity{}, false
	}

	id, ok := v.(identity.Identity)

	return id, ok
}

func (m *MemoryIdentityCache) Set(ctx context.Context, key string, id identity.Identity, ttl time.Duration) {
	m.c.Set(key, id)
}
