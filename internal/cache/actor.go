package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scholarcrm/internal/domain"
)

const actorKeyPrefix = "actor:"

// RedisActorCache stores resolved actors in redis. Failures are logged and treated as misses
// so auth falls back to the user store.
type RedisActorCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisActorCache(client *redis.Client, ttl time.Duration) *RedisActorCache {
	return &RedisActorCache{
		client: client,
		ttl:    ttl,
		log:    slog.Default().With("component", "actor_cache"),
	}
}

func (c *RedisActorCache) Get(ctx context.Context, uid string) (*domain.Actor, bool) {
	raw, err := c.client.Get(ctx, actorKeyPrefix+uid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("actor cache get failed", "uid", uid, "error", err)
		return nil, false
	}

	var a domain.Actor
	if err := json.Unmarshal(raw, &a); err != nil || a.UID != uid {
		return nil, false
	}
	return &a, true
}

func (c *RedisActorCache) Set(ctx context.Context, actor domain.Actor) {
	raw, err := json.Marshal(actor)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, actorKeyPrefix+actor.UID, raw, c.ttl).Err(); err != nil {
		c.log.Warn("actor cache set failed", "uid", actor.UID, "error", err)
	}
}

func (c *RedisActorCache) Invalidate(ctx context.Context, uid string) {
	if err := c.client.Del(ctx, actorKeyPrefix+uid).Err(); err != nil {
		c.log.Warn("actor cache invalidate failed", "uid", uid, "error", err)
	}
}

// MemoryActorCache is the single-process fallback when redis is not configured.
type MemoryActorCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	actor   domain.Actor
	expires time.Time
}

func NewMemoryActorCache(ttl time.Duration) *MemoryActorCache {
	return &MemoryActorCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryActorCache) Get(_ context.Context, uid string) (*domain.Actor, bool) {
	c.mu.RLock()
	e, ok := c.entries[uid]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	a := e.actor
	return &a, true
}

func (c *MemoryActorCache) Set(_ context.Context, actor domain.Actor) {
	c.mu.Lock()
	c.entries[actor.UID] = memoryEntry{actor: actor, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryActorCache) Invalidate(_ context.Context, uid string) {
	c.mu.Lock()
	delete(c.entries, uid)
	c.mu.Unlock()
}
