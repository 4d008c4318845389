package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis keeps state in a single Redis string per key. SET replaces the whole
// value, which matches the save-all contract.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Redis) Save(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}
