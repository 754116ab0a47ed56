package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisCacheStore wraps a Store with a Redis cache of the encoded snapshot.
//
// Writes and resets replace the cached copy after the underlying store
// succeeds. Loads fill a missing entry with SET NX only, so a fill racing a
// write can never replace the newer snapshot.
type RedisCacheStore struct {
	store  ratelimit.Store
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheStore creates a new Redis-cached store decorator.
func NewRedisCacheStore(
	store ratelimit.Store, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheStore {
	return &RedisCacheStore{
		store:  store,
		client: client,
		key:    DefaultRedisKey + ":cache",
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached snapshot, falling back to the underlying store on a
// miss or an unreadable cache entry.
func (r *RedisCacheStore) Load(ctx context.Context) (ratelimit.Snapshot, error) {
	if raw, err := r.client.Get(ctx, r.key).Bytes(); err == nil {
		if data, err := decodeSnapshot(raw); err == nil {
			return data, nil
		}

		r.invalidate(ctx)
	}

	data, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, data)

	return data, nil
}

func (r *RedisCacheStore) Persist(ctx context.Context, data ratelimit.Snapshot) error {
	if err := r.store.Persist(ctx, data); err != nil {
		return err
	}

	r.replace(ctx, data)

	return nil
}

func (r *RedisCacheStore) Reset(ctx context.Context) error {
	if err := r.store.Reset(ctx); err != nil {
		return err
	}

	r.replace(ctx, ratelimit.Snapshot{})

	return nil
}

// Ping checks the underlying store, if it can be checked.
func (r *RedisCacheStore) Ping(ctx context.Context) error {
	if p, ok := r.store.(Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Shutdown releases the underlying store if it holds resources.
func (r *RedisCacheStore) Shutdown() error {
	if s, ok := r.store.(interface{ Shutdown() error }); ok {
		return s.Shutdown()
	}

	return nil
}

// fill caches a snapshot read from the underlying store unless a writer has
// cached one since.
func (r *RedisCacheStore) fill(ctx context.Context, data ratelimit.Snapshot) {
	raw, err := encodeSnapshot(data)
	if err != nil {
		return
	}

	if err := r.client.SetNX(ctx, r.key, raw, r.ttl).Err(); err != nil {
		r.logger.Debug("failed to cache snapshot", zap.Error(err))
	}
}

// replace caches the snapshot just written. When that fails the entry is
// dropped so no older copy outlives the write.
func (r *RedisCacheStore) replace(ctx context.Context, data ratelimit.Snapshot) {
	raw, err := encodeSnapshot(data)
	if err == nil {
		err = r.client.Set(ctx, r.key, raw, r.ttl).Err()
	}

	if err != nil {
		r.logger.Debug("failed to cache written snapshot", zap.Error(err))
		r.invalidate(ctx)
	}
}

// invalidate is best effort; errors are only logged.
func (r *RedisCacheStore) invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Warn("failed to invalidate snapshot cache", zap.Error(err))
	}
}

// Compile-time check.
var _ ratelimit.Store = (*RedisCacheStore)(nil)
