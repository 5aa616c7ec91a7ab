package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docsum/types"

	"github.com/redis/go-redis/v9"
)

const redisKey = "docsum:summary:current"

// RedisStore keeps the summary under one Redis key.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore connects and pings the server before returning.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{Client: client}, nil
}

func (r *RedisStore) Save(ctx context.Context, summary types.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r.Client.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set summary: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (types.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	data, err := r.Client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Summary{}, ErrNotFound
		}
		return types.Summary{}, fmt.Errorf("failed to get summary: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Close() error {
	return r.Client.Close()
}
