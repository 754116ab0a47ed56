package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ratelog/internal/ratelimit"
)

// DefaultRedisKey is the key holding the snapshot.
const DefaultRedisKey = "ratelog:snapshot"

// RedisStore keeps the snapshot as one string value in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed snapshot store. An empty key selects
// DefaultRedisKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (ratelimit.Snapshot, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ratelimit.Snapshot{}, nil
		}

		return nil, err
	}

	return decodeSnapshot(raw)
}

// Persist overwrites the snapshot. The value expires after the pruning horizon.
func (r *RedisStore) Persist(ctx context.Context, data ratelimit.Snapshot) error {
	raw, err := encodeSnapshot(data)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.key, raw, ratelimit.Horizon).Err()
}

func (r *RedisStore) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Compile-time check.
var _ ratelimit.Store = (*RedisStore)(nil)
