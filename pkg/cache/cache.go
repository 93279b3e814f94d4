// -----------------------------------------------------------------------------
// Cache Interface
// -----------------------------------------------------------------------------
// Byte tabanlı cache sözleşmesi. Serialization çağırana aittir; Remember
// yardımcı fonksiyonu JSON ile read-through cache kurar.
//
// Driver'lar: Redis (production), Memory (local, test)
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Driver adları.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Cache, tüm cache driver'ların implement etmesi gereken interface.
type Cache interface {
	// Get, key'in değerini döner. Key yoksa ya da süresi dolmuşsa
	// (nil, false, nil) döner; miss bir hata değildir.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set, değeri ttl süresince saklar. ttl <= 0 süresiz demektir.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete, verilen key'leri siler. Olmayan key hata değildir.
	Delete(ctx context.Context, keys ...string) error
}

// New, driver adına göre cache kurar. Redis driver'ı client ister.
//
//	c, err := cache.New(cfg.Cache.Driver, redisClient, cfg.Cache.Prefix, log)
func New(driver string, client *redis.Client, prefix string, log *logger.Logger) (Cache, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryCache(log), nil
	case DriverRedis:
		if client == nil {
			return nil, fmt.Errorf("cache: redis driver requires a redis client")
		}
		return NewRedisCache(client, log, prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", driver)
	}
}

// Remember, key cache'te varsa JSON olarak dest'e çözer; yoksa fn'i çalıştırır,
// sonucu cache'e yazar ve döner.
//
// Cache okuma/yazma hataları fn'in sonucunu engellemez, sadece loglanır.
// fn'in hatası olduğu gibi döner ve cache'e hiçbir şey yazılmaz.
func Remember[T any](ctx context.Context, c Cache, log *logger.Logger, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if raw, ok, err := c.Get(ctx, key); err != nil {
		log.Warn("cache read failed", "key", key, "error", err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn("cache entry is not decodable, refreshing", "key", key)
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn("cache encode failed", "key", key, "error", err)
		return value, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	}
	return value, nil
}
