package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageKeyPrefix = "hoopsdb:page:"

// RedisCache stores scraped pages so reruns over the same seasons do not
// hit the source sites again
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetPage returns the cached body for url. A miss is not an error.
func (rc *RedisCache) GetPage(ctx context.Context, url string) (string, bool, error) {
	body, err := rc.client.Get(ctx, pageKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return body, true, nil
}

// SetPage stores body for url with a TTL
func (rc *RedisCache) SetPage(ctx context.Context, url, body string, ttl time.Duration) error {
	return rc.client.Set(ctx, pageKey(url), body, ttl).Err()
}

// DeletePages removes cached bodies
func (rc *RedisCache) DeletePages(ctx context.Context, urls ...string) error {
	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = pageKey(u)
	}
	return rc.client.Del(ctx, keys...).Err()
}

func pageKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return pageKeyPrefix + hex.EncodeToString(sum[:])
}
