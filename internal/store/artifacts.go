package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/hh-interviewer/internal/interview"
)

type artifact struct {
	value   []byte
	expires time.Time
}

// MemoryArtifacts is an in-process ArtifactCache.
type MemoryArtifacts struct {
	mu    sync.RWMutex
	items map[string]artifact
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryArtifacts(ttl time.Duration, now func() time.Time) *MemoryArtifacts {
	if ttl <= 0 {
		ttl = DefaultArtifactTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryArtifacts{items: make(map[string]artifact), ttl: ttl, now: now}
}

func (c *MemoryArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expires) {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

func (c *MemoryArtifacts) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = artifact{value: append([]byte(nil), value...), expires: c.now().Add(c.ttl)}
	return nil
}

// RedisArtifacts is an ArtifactCache backed by Redis key expiry.
type RedisArtifacts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisArtifacts(client *redis.Client, ttl time.Duration) *RedisArtifacts {
	if ttl <= 0 {
		ttl = DefaultArtifactTTL
	}
	return &RedisArtifacts{client: client, ttl: ttl}
}

func artifactKey(key string) string {
	return "interview:artifact:" + key
}

func (c *RedisArtifacts) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, artifactKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, &interview.UpstreamError{Provider: redisProvider, Err: err}
	}
	return data, nil
}

func (c *RedisArtifacts) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, artifactKey(key), value, c.ttl).Err(); err != nil {
		return &interview.UpstreamError{Provider: redisProvider, Err: err}
	}
	return nil
}
