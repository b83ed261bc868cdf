package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/verdeleaf/storefront-backend/pkg/redis"
)

// Storage is the durable port the cart is serialized through on every
// mutation. A missing entry is reported as ("", nil), not an error.
type Storage interface {
	Get(ctx context.Context, token string) (string, error)
	Set(ctx context.Context, token string, payload string) error
	Remove(ctx context.Context, token string) error
}

// RedisStorage keys serialized carts by cart token with a sliding TTL.
type RedisStorage struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisStorage builds the production cart storage.
func NewRedisStorage(client *redisclient.Client, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (s *RedisStorage) Get(ctx context.Context, token string) (string, error) {
	payload, err := s.client.Get(ctx, s.client.CartKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", nil
		}
		return "", err
	}
	return payload, nil
}

func (s *RedisStorage) Set(ctx context.Context, token string, payload string) error {
	return s.client.Set(ctx, s.client.CartKey(token), payload, s.ttl)
}

func (s *RedisStorage) Remove(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.client.CartKey(token))
}
