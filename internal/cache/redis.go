package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/tally/pkg/api"
)

// RedisCache is a ResponseCache backed by Redis. It uses a simple key
// structure:
//
//	<prefix>resp:<owner>:<normalized text>
//
// TTL is applied per entry via the Redis expiry; ttl <= 0 stores entries
// without expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ api.ResponseCache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache. prefix is optional but recommended
// (e.g. "tally:").
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "tally:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) key(owner, text string) string {
	return c.prefix + "resp:" + owner + ":" + NormalizeText(text)
}

func (c *RedisCache) Get(ctx context.Context, owner, text string) (string, bool, error) {
	reply, err := c.client.Get(ctx, c.key(owner, text)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return reply, true, nil
}

func (c *RedisCache) Set(ctx context.Context, owner, text, reply string) error {
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key(owner, text), reply, ttl).Err()
}
