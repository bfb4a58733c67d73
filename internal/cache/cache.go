// Package cache is an explicit, content-addressed store for derived analytic
// tables. Keys are fingerprints of every input that can change the result
// (dataset identity, filter parameters, model artifact), so a stale
// cross-filter hit is impossible by construction. Entries expire by TTL;
// there is no implicit framework-level memoization anywhere in the engine.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
)

const keyPrefix = "insight:result:"

// ResultCache stores JSON-encoded derived tables in Redis.
type ResultCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a result cache with the given TTL. A zero TTL means entries
// never expire; prefer a real TTL in production.
func New(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{redis: rdb, ttl: ttl}
}

// Fingerprint derives a stable cache key from the ordered list of
// result-affecting inputs. Callers must include every parameter that can
// change the value: dataset identity, date range, amount range, offer-type
// selection, and the model artifact ID when segment labels are involved.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get loads a cached result into dest. The second return is false on a miss.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry behaves like a miss so the caller recomputes.
		logger.Warn("cache entry corrupt, treating as miss", "key", key, "error", err.Error())
		return false, nil
	}
	return true, nil
}

// Set stores a computed result under its fingerprint.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every engine result entry. Used after artifact swaps
// when the caller cannot enumerate affected fingerprints.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	logger.Info("result cache invalidated", "entries", len(keys))
	return nil
}
