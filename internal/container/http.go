package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ratelog/internal/handlers"
	"github.com/serroba/ratelog/internal/health"
	"github.com/serroba/ratelog/internal/middleware"
	"github.com/serroba/ratelog/internal/policy"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route
// registered. Invoking huma.API registers the routes.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Handle("/metrics", promhttp.HandlerFor(
			do.MustInvoke[*prometheus.Registry](i),
			promhttp.HandlerOpts{},
		))

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		limiter, err := do.Invoke[*ratelimit.Limiter](i)
		if err != nil {
			return nil, err
		}

		registry, err := do.Invoke[*policy.Registry](i)
		if err != nil {
			return nil, err
		}

		if opts.WatchPolicy && opts.PolicyFile != "" {
			if _, err := do.Invoke[*policy.Watcher](i); err != nil {
				return nil, err
			}
		}

		trusted, err := middleware.ParseTrustedProxies(opts.TrustProxy)
		if err != nil {
			return nil, err
		}

		checks := map[string]health.Checker{"store": do.MustInvoke[health.Checker](i)}
		if opts.Backend == BackendRedis || opts.CacheTTL > 0 || opts.Notify == NotifyStream {
			checks["redis"] = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
		}

		api := humachi.New(router, huma.DefaultConfig("ratelog", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMetaMiddleware(api, trusted),
			middleware.RateLimiter(api, limiter, registry, logger),
		)

		handlers.RegisterRoutes(api, handlers.NewLimitsHandler(limiter, logger))
		health.RegisterRoutes(api, health.NewHandler(checks))

		return api, nil
	})
}
