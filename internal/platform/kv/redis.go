package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis creates a Redis client and verifies connectivity.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kv: redis ping: %w", err)
	}

	return client, nil
}

// RedisStore keeps slots as plain Redis strings without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads a slot.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("kv: redis get %s: %w", key, err)
	}
	return payload, nil
}

// SetMulti writes all entries inside MULTI/EXEC.
func (s *RedisStore) SetMulti(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, e.Key, e.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv: redis set: %w", err)
	}
	return nil
}
