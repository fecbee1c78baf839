package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const connectMaxElapsed = 15 * time.Second

type RedisStorage struct {
	Connection *redis.Client
}

// NewRedisStorage - connects to redis, retrying the ping with exponential backoff.
func NewRedisStorage(ctx context.Context, addr string) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := pingWithBackoff(ctx, func(ctx context.Context) error {
		return conn.Ping(ctx).Err()
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{Connection: conn}, nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}

func pingWithBackoff(ctx context.Context, ping func(ctx context.Context) error) error {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = connectMaxElapsed

	return backoff.Retry(func() error {
		return ping(ctx)
	}, backoff.WithContext(retryBackoff, ctx))
}
