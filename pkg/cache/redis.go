package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis. Every key is namespaced with a
// prefix so that Clear only touches this cache's entries.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and verifies the connection.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrNetwork, err)
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		v, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			data = nil
			return nil
		}
		if err != nil {
			return classifyRedis(err)
		}
		data = v
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

// Set stores a value in Redis. A zero ttl stores the key without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return RetryWithBackoff(ctx, func() error {
		return classifyRedis(c.client.Set(ctx, c.prefix+key, data, ttl).Err())
	})
}

// Delete removes a key from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return classifyRedis(c.client.Del(ctx, c.prefix+key).Err())
}

// Clear deletes every key under the cache prefix. An empty prefix would
// match the whole database, so it is refused.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	if c.prefix == "" {
		return 0, errors.New("redis cache: refusing to clear without a key prefix")
	}
	count := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return classifyRedis(err)
		}
		count += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return count, classifyRedis(err)
	}
	return count, flush()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classifyRedis marks connection-level failures as retryable network
// errors and passes everything else through.
func classifyRedis(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	return err
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
