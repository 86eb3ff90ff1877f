package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/medic-pro/internal/clinic"
)

// RedisStore keeps each record as a string value.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("store: redis client cannot be nil")
	}
	return &RedisStore{redis: client}
}

func (s *RedisStore) Load(ctx context.Context, key string) (*clinic.Record, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get: %w", err)
	}
	return Decode(data)
}

func (s *RedisStore) Save(ctx context.Context, key string, rec *clinic.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("store: redis del: %w", err)
	}
	return nil
}
