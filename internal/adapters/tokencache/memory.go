// Package tokencache provides expiry-aware caches for provider access tokens.
package tokencache

import (
	"context"
	"sync"
	"time"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/data"
)

// refreshMargin refreshes tokens slightly before their reported expiry so an
// almost-expired token is never handed to an in-flight request.
const refreshMargin = 30 * time.Second

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process token cache. A per-instance mutex serializes
// refreshes so concurrent callers trigger at most one fetch per expiry.
type MemoryCache struct {
	mu           sync.Mutex
	tokens       map[string]cachedToken
	timeProvider data.TimeProvider
}

// NewMemoryCache creates an in-process token cache. A nil timeProvider uses
// the real clock.
func NewMemoryCache(timeProvider data.TimeProvider) *MemoryCache {
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}
	return &MemoryCache{
		tokens:       make(map[string]cachedToken),
		timeProvider: timeProvider,
	}
}

// Get returns the cached token for key while it remains valid past the
// refresh margin, and otherwise fetches and caches a fresh one.
func (c *MemoryCache) Get(ctx context.Context, key string, fetch core.TokenFetchFunc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.timeProvider.Now()
	if cached, ok := c.tokens[key]; ok && now.Before(cached.expiresAt.Add(-refreshMargin)) {
		return cached.value, nil
	}

	token, expiresAt, err := fetch(ctx)
	if err != nil {
		return "", err
	}

	c.tokens[key] = cachedToken{value: token, expiresAt: expiresAt}
	return token, nil
}

var _ core.TokenCache = (*MemoryCache)(nil)
