package common

import (
	"context"
	"time"

	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/logging"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.CacheConfig) *redis.Client {
	addr := cfg.RedisAddr()
	logging.Info("Initializing Redis client", "addr", addr, "db", cfg.RedisDB)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn("Failed to ping Redis", "addr", addr, "error", err)
		return client // Still return the client, connection pool will try to reconnect
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client
}
