package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore guards checkout confirmations with SETNX-style locks so a
// client retry after a timeout cannot run the commit twice.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) TryLock(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(key), "1", s.ttl).Result()
}

func (s *RedisStore) Unlock(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, lockKey(key)).Err()
}

func (s *RedisStore) Remember(ctx context.Context, key, orderID string) error {
	return s.rdb.Set(ctx, mapKey(key), orderID, s.ttl).Err()
}

func (s *RedisStore) Recall(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	return val, err == nil, err
}

func lockKey(key string) string {
	return "idemp:checkout:" + key
}

func mapKey(key string) string {
	return "idemp:map:checkout:" + key
}
