package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/data"
)

// RedisCache shares provider tokens across instances through Redis. Tokens
// are stored with a TTL shortened by the refresh margin, so an entry that
// still exists is always safe to use.
type RedisCache struct {
	client       redis.UniversalClient
	keyPrefix    string
	maxTTL       time.Duration
	timeProvider data.TimeProvider
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	Client redis.UniversalClient
	// KeyPrefix namespaces the cache keys. Defaults to "integrations:token:".
	KeyPrefix string
	// MaxTTL caps how long a token entry may live regardless of the
	// provider-reported expiry. Zero means no cap.
	MaxTTL       time.Duration
	TimeProvider data.TimeProvider
}

// NewRedisCache creates a Redis-backed token cache.
func NewRedisCache(opts RedisCacheOptions) (*RedisCache, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "integrations:token:"
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	return &RedisCache{
		client:       opts.Client,
		keyPrefix:    prefix,
		maxTTL:       opts.MaxTTL,
		timeProvider: tp,
	}, nil
}

// Get returns the shared token for key, fetching and storing a fresh one
// when no live entry exists.
func (c *RedisCache) Get(ctx context.Context, key string, fetch core.TokenFetchFunc) (string, error) {
	redisKey := c.keyPrefix + key

	value, err := c.client.Get(ctx, redisKey).Result()
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get token: %w", err)
	}

	token, expiresAt, err := fetch(ctx)
	if err != nil {
		return "", err
	}

	ttl := expiresAt.Sub(c.timeProvider.Now()) - refreshMargin
	if c.maxTTL > 0 && ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	if ttl <= 0 {
		// Token expires inside the margin; usable once but not worth caching.
		return token, nil
	}

	if setErr := c.client.Set(ctx, redisKey, token, ttl).Err(); setErr != nil {
		return "", fmt.Errorf("redis store token: %w", setErr)
	}
	return token, nil
}

var _ core.TokenCache = (*RedisCache)(nil)
