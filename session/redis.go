package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blogfront:session:"

// RedisStorage keeps the persisted keys server-side in one Redis hash per
// browser session; the cookie then only carries the session id.
type RedisStorage struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
}

// NewRedisStorage returns storage for the browser session sessionID. The
// hash expires ttl after the last write.
func NewRedisStorage(rdb *goredis.Client, sessionID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, key: redisKeyPrefix + sessionID, ttl: ttl}
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.key, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisStorage) SetAll(ctx context.Context, values map[string]string) error {
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.key, args...)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
