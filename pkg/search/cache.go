package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"oreza-assistant-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "assistant:search:"

// CachedProvider memoises results in Redis. Redis failures are logged and
// bypassed so a cache outage never turns into a search failure.
type CachedProvider struct {
	next   Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration, log logger.ILogger) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func cacheKey(query string, n int, kind Kind) string {
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("%s%s:%d:%s", cacheKeyPrefix, kind, n, hex.EncodeToString(sum[:]))
}

func (c *CachedProvider) Search(ctx context.Context, query string, n int, kind Kind) ([]Result, error) {
	key := cacheKey(query, n, kind)

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached []Result
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		case err != redis.Nil:
			c.logger.Debug(logModule, "Search cache unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	results, err := c.next.Search(ctx, query, n, kind)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil && len(results) > 0 {
		if payload, err := json.Marshal(results); err == nil {
			if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Debug(logModule, "Search cache write failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return results, nil
}
