package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "stock:"

// RedisAdapter caches stock levels for the read path. It plays no part in
// the purchase transaction; the database owns stock truth and the cache is
// dropped whenever a write changes it.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(itemID int64) string {
	return stockKeyPrefix + strconv.FormatInt(itemID, 10)
}

func (r *RedisAdapter) GetStock(ctx context.Context, itemID int64) (int, bool, error) {
	stock, err := r.client.Get(ctx, stockKey(itemID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stock, true, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, itemID int64, stock int, ttl time.Duration) error {
	return r.client.Set(ctx, stockKey(itemID), stock, ttl).Err()
}

func (r *RedisAdapter) InvalidateStock(ctx context.Context, itemIDs ...int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, stockKey(id))
	}
	return r.client.Del(ctx, keys...).Err()
}
