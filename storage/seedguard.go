package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSeedGuard records in Redis that a session has claimed the taxonomy
// bootstrap so concurrent sessions on other instances skip it.
type RedisSeedGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSeedGuard creates a guard over key. A zero ttl keeps the claim
// until it is released.
func NewRedisSeedGuard(client *redis.Client, key string, ttl time.Duration) *RedisSeedGuard {
	return &RedisSeedGuard{client: client, key: key, ttl: ttl}
}

// Claim returns true when this caller is the first to claim the bootstrap.
func (g *RedisSeedGuard) Claim(ctx context.Context) (bool, error) {
	return g.client.SetNX(ctx, g.key, time.Now().UnixNano(), g.ttl).Result()
}

// Release drops the claim, used when seeding fails so a later session may retry.
func (g *RedisSeedGuard) Release(ctx context.Context) error {
	return g.client.Del(ctx, g.key).Err()
}
