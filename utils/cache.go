// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"servana/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CheckoutCacheClient holds pending-checkout hints keyed by gateway reference.
	CheckoutCacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
)

// InitCheckoutCache initializes the Redis client used for pending-checkout hints.
func InitCheckoutCache() {
	CheckoutCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CheckoutCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Checkout Cache): %v", err)
	}
}

// GetCheckoutCacheClient returns the checkout-hint cache client.
func GetCheckoutCacheClient() *redis.Client {
	if CheckoutCacheClient == nil {
		InitCheckoutCache()
	}
	return CheckoutCacheClient
}

// InitAuthCache initializes the Redis client for authorization caching.
func InitAuthCache() {
	AuthCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAuthDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := AuthCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Auth Cache): %v", err)
	}
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		InitAuthCache()
	}
	return AuthCacheClient
}

// InitRedis initializes every Redis client the server needs up front.
func InitRedis() {
	InitCheckoutCache()
	InitAuthCache()
}
