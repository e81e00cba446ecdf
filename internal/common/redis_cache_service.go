package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheInterface using Redis. Byte slices are
// stored verbatim and every Get returns the raw bytes, so callers that
// cache encoded JSON get the exact bytes back.
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService wraps client. namespace is prepended to every key so
// several agents can share one Redis database.
func NewRedisCacheService(client *redis.Client, namespace string) (*RedisCacheService, error) {
	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheService{
		client: client,
		ctx:    ctx,
		prefix: namespace,
	}, nil
}

// Set stores a value in Redis with the given key and duration
func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			logging.Error("Redis cache: failed to marshal value", "key", key, "error", err)
			return
		}
		data = encoded
	}

	if err := r.client.Set(r.ctx, r.prefix+key, data, duration).Err(); err != nil {
		logging.Error("Redis cache: failed to set key", "key", key, "error", err)
	}
}

// Get retrieves the raw bytes stored under key
func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	data, err := r.client.Get(r.ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Key not found
		return nil, false
	}
	if err != nil {
		logging.Error("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

// Delete removes a value from Redis by key
func (r *RedisCacheService) Delete(key string) {
	if err := r.client.Del(r.ctx, r.prefix+key).Err(); err != nil {
		logging.Error("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

// DeleteByPrefix scans for matching keys instead of using KEYS so large
// databases are not blocked.
func (r *RedisCacheService) DeleteByPrefix(prefix string) int {
	removed := 0
	iter := r.client.Scan(r.ctx, 0, r.prefix+prefix+"*", 100).Iterator()
	for iter.Next(r.ctx) {
		if err := r.client.Del(r.ctx, iter.Val()).Err(); err != nil {
			logging.Error("Redis cache: failed to delete key", "key", iter.Val(), "error", err)
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		logging.Error("Redis cache: scan failed", "prefix", prefix, "error", err)
	}
	return removed
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}

