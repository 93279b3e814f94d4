// -----------------------------------------------------------------------------
// Redis Cache Driver
// -----------------------------------------------------------------------------
// Production cache driver. Birden fazla API instance'ı aynı cache'i görür;
// ticket_used event'i hangi instance'ta işlenirse işlensin invalidation
// herkese yansır.
//
// Tüm key'ler prefix ile namespace'lenir: "tickets:" + "my_ticket:7:uid"
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// RedisCache, Redis tabanlı cache.
type RedisCache struct {
	client *redis.Client
	logger *logger.Logger
	prefix string
}

// NewRedisCache, yeni bir Redis cache döner. prefix boş olabilir.
//
//	c := cache.NewRedisCache(client, log, "tickets:")
//	c.Set(ctx, "my_ticket:7:abc", raw, time.Minute) // key: "tickets:my_ticket:7:abc"
func NewRedisCache(client *redis.Client, log *logger.Logger, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log,
		prefix: prefix,
	}
}

func (r *RedisCache) prefixKey(key string) string {
	return r.prefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	prefixedKey := r.prefixKey(key)

	val, err := r.client.Get(ctx, prefixedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("redis get failed", "key", prefixedKey, "error", err)
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	prefixedKey := r.prefixKey(key)

	if err := r.client.Set(ctx, prefixedKey, value, ttl).Err(); err != nil {
		r.logger.Error("redis set failed", "key", prefixedKey, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefixKey(key)
	}

	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		r.logger.Error("redis delete failed", "keys", prefixed, "error", err)
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
