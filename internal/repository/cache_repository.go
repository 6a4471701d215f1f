package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

// CacheRepository wraps Redis for cached report payloads and the token denylist.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// Undecodable payloads count as misses.
		if r.logger != nil {
			r.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		}
		return appErrors.ErrCacheMiss
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Exists reports whether the key is present. A nil client never holds keys.
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// scanBatch bounds how many keys one SCAN round returns and one DEL removes.
const scanBatch = 100

// DeleteByPattern removes every key matching pattern. The full SCAN completes
// before any DEL so the cursor walks an unchanged keyspace.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64
	for {
		page, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
		}
		for _, key := range page {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	var deleted int64
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		n, err := r.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return fmt.Errorf("redis delete %d keys for %s: %w", end-start, pattern, err)
		}
		deleted += n
	}

	if r.logger != nil && deleted > 0 {
		r.logger.Debug("cache entries removed", zap.String("pattern", pattern), zap.Int64("count", deleted))
	}
	return nil
}
