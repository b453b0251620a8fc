// Package cache wraps go-redis with a typed JSON get/set interface.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient[T any] struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRedisClient[T any](client *redis.Client, expiration time.Duration) *RedisClient[T] {
	return &RedisClient[T]{client: client, expiration: expiration}
}

func (c *RedisClient[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.expiration).Err()
}

func (c *RedisClient[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return zero, err
	}

	result := new(T)
	if err := json.Unmarshal(data, result); err != nil {
		return zero, err
	}
	return *result, nil
}
