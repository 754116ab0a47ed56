package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ratelog/internal/middleware"
	"go.uber.org/zap"
)

var (
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrUnknownNotifier = errors.New("unknown notifier")
)

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Notifier kinds.
const (
	NotifyNone   = "none"
	NotifyLog    = "log"
	NotifyStream = "stream"
)

type Options struct {
	Port        int    `default:"8888"                                              help:"Port to listen on"                                         short:"p"`
	LogFormat   string `default:"json"                                              help:"Log format: json or console"`
	Backend     string `default:"file"                                              help:"Snapshot store: file, sqlite, redis, postgres or memory"   short:"b"`
	DataFile    string `default:""                                                  help:"Snapshot file for the file backend (default: temp dir)"`
	SQLitePath  string `default:"ratelog.db"                                        help:"Database file for the sqlite backend"`
	RedisAddr   string `default:"localhost:6379"                                    help:"Redis server address"                                      short:"r"`
	PostgresURL string `default:"postgres://localhost:5432/ratelog?sslmode=disable" help:"Postgres connection string for the postgres backend"`
	CacheTTL    int    `default:"0"                                                 help:"Seconds to cache the snapshot in Redis, 0 disables"`
	PolicyFile  string `default:""                                                  help:"YAML file with named limit policies"`
	WatchPolicy bool   `default:"false"                                             help:"Reload the policy file when it changes"`
	Notify      string `default:"log"                                               help:"Near-limit notifications: none, log or stream"`
	Namespace   string `default:""                                                  help:"Action namespace for keys logged without one"`
	Serialize   bool   `default:"true"                                              help:"Serialize limiter calls within this process"`
	TrustProxy  string `default:""                                                  help:"Comma-separated proxy IPs or CIDRs whose X-Forwarded-For is trusted"`
}

// CacheDuration converts CacheTTL.
func (o *Options) CacheDuration() time.Duration {
	return time.Duration(o.CacheTTL) * time.Second
}

// LoggerPackage provides *zap.Logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "console" {
			return zap.NewDevelopment()
		}

		return zap.NewProduction()
	})
}

// RedisPackage provides *redis.Client. The client connects lazily, so
// providing it costs nothing when no component uses Redis.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: opts.RedisAddr}), nil
	})
}

// Validate rejects unknown backend and notifier names and malformed trusted
// proxies.
func (o *Options) Validate() error {
	switch o.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}

	switch o.Notify {
	case NotifyNone, NotifyLog, NotifyStream:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotifier, o.Notify)
	}

	if _, err := middleware.ParseTrustedProxies(o.TrustProxy); err != nil {
		return err
	}

	return nil
}
