// internal/auth/cache.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// ClaimsCache memoizes verified token claims in Redis so repeated requests
// with the same credential skip signature verification. A nil client
// disables caching entirely.
type ClaimsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClaimsCache(client *redis.Client, ttl time.Duration) *ClaimsCache {
	return &ClaimsCache{client: client, ttl: ttl}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "authclaims:" + hex.EncodeToString(sum[:])
}

func (c *ClaimsCache) Get(ctx context.Context, token string) (*Claims, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(token)).Bytes()
	if err != nil {
		return nil, false
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

func (c *ClaimsCache) Set(ctx context.Context, token string, claims *Claims) {
	if c == nil || c.client == nil || claims == nil {
		return
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return
	}
	// Cache failures degrade to re-verification, never to an error.
	c.client.Set(ctx, cacheKey(token), raw, c.ttl)
}
