package storage

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"beacon/internal/platform/redis"
	dErrors "beacon/pkg/domain-errors"
)

// RedisStore persists values in redis so consent survives process restarts
// and multiple instances share a consistent view.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed store. Keys are namespaced by prefix.
func NewRedis(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "redis get failed")
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, opts Options) error {
	if err := s.client.Set(ctx, s.prefix+key, value, opts.TTL()).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "redis set failed")
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "redis del failed")
	}
	return nil
}
