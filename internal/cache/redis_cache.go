package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"stockpulse/backend/internal/domain"
)

// RedisRangeReportCache shares range reports between instances. It refuses
// keys outside the range report namespace so it can share a database with the
// snapshot store, and drops entries it can no longer decode.
type RedisRangeReportCache struct {
	client *redis.Client
}

func NewRedisRangeReportCache(addr string, password string, db int) *RedisRangeReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisRangeReportCache{client: client}
}

func (c *RedisRangeReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRangeReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisRangeReportCache) Get(ctx context.Context, key string) (*domain.RangeAggregate, bool, error) {
	if !IsRangeReportKey(key) {
		return nil, false, fmt.Errorf("%w: %q", ErrForeignKey, key)
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report domain.RangeAggregate
	if err := json.Unmarshal(val, &report); err != nil {
		// a stale encoding is a miss; the caller recomputes and overwrites it
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, nil
	}
	return &report, true, nil
}

func (c *RedisRangeReportCache) Set(ctx context.Context, key string, value *domain.RangeAggregate, ttl time.Duration) error {
	if !IsRangeReportKey(key) {
		return fmt.Errorf("%w: %q", ErrForeignKey, key)
	}
	if value == nil {
		return nil
	}
	if ttl <= 0 {
		// redis treats zero as "keep forever"
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
