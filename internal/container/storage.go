package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ratelog/internal/health"
	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/serroba/ratelog/internal/store"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// StorePackage provides the configured ratelimit.Store and a health check for
// it. With a cache TTL, durable backends are fronted by a Redis cache.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		backend, err := newBackend(i, opts, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("snapshot store ready", zap.String("backend", opts.Backend))

		if opts.CacheTTL > 0 && opts.Backend != BackendRedis && opts.Backend != BackendMemory {
			client := do.MustInvoke[*redis.Client](i)

			return store.NewRedisCacheStore(backend, client, opts.CacheDuration(), logger), nil
		}

		return backend, nil
	})

	do.Provide(injector, func(i *do.Injector) (health.Checker, error) {
		s, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		checker, ok := s.(health.Checker)
		if !ok {
			return nil, fmt.Errorf("store %T cannot be health checked", s)
		}

		return checker, nil
	})
}

func newBackend(i *do.Injector, opts *Options, logger *zap.Logger) (ratelimit.Store, error) {
	switch opts.Backend {
	case BackendSQLite:
		return store.NewSQLiteStore(opts.SQLitePath)
	case BackendRedis:
		return store.NewRedisStore(do.MustInvoke[*redis.Client](i), store.DefaultRedisKey), nil
	case BackendPostgres:
		return newPostgresStore(opts.PostgresURL)
	case BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewFileStore(opts.DataFile, store.WithInvalidator(func(path string) {
			logger.Debug("snapshot file rewritten", zap.String("path", path))
		})), nil
	}
}

func newPostgresStore(url string) (*store.PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := store.NewPostgresStore(pool, store.DefaultSnapshotName)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return s, nil
}
