package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Collection with a Redis read-through cache for List. Every
// successful mutation evicts the cached listing.
type Cache[T Entity[T], P Patch[T]] struct {
	base  Collection[T, P]
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewCache creates a caching wrapper storing the listing under key.
func NewCache[T Entity[T], P Patch[T]](base Collection[T, P], client *redis.Client, key string, ttl time.Duration) *Cache[T, P] {
	if base == nil {
		panic("storage.NewCache: base collection is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache[T, P]{base: base, redis: client, key: "cache:" + key, ttl: ttl}
}

func (c *Cache[T, P]) List(ctx context.Context) ([]T, error) {
	if items, ok := c.load(ctx); ok {
		return items, nil
	}
	items, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, items)
	return items, nil
}

func (c *Cache[T, P]) Create(ctx context.Context, v T) (string, error) {
	id, err := c.base.Create(ctx, v)
	if err != nil {
		return "", err
	}
	c.evict(ctx)
	return id, nil
}

func (c *Cache[T, P]) Update(ctx context.Context, id string, patch P) error {
	if err := c.base.Update(ctx, id, patch); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache[T, P]) Delete(ctx context.Context, id string) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache[T, P]) load(ctx context.Context) ([]T, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing collection without failing.
			_ = c.redis.Del(ctx, c.key).Err()
		}
		return nil, false
	}
	var items []T
	if err := sonic.Unmarshal(data, &items); err != nil {
		_ = c.redis.Del(ctx, c.key).Err()
		return nil, false
	}
	return items, true
}

func (c *Cache[T, P]) store(ctx context.Context, items []T) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(items)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *Cache[T, P]) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, c.key).Err()
}
