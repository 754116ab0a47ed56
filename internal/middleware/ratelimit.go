package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// Limiter records an event for the caller identity on the request context.
type Limiter interface {
	LogIdentityAction(ctx context.Context, action string, limits []string, data any) (bool, error)
}

// Policies resolves policy names to limit lists.
type Policies interface {
	Limits(name string) ([]string, error)
}

// RateLimiter limits routes that carry an EndpointConfig, keyed on the client
// identity set by RequestMetaMiddleware. Rejected requests get 429.
func RateLimiter(
	api huma.API,
	limiter Limiter,
	policies Policies,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := EndpointConfigFrom(ctx)
		if cfg == nil || cfg.Disabled {
			next(ctx)

			return
		}

		limits := cfg.Limits
		if len(limits) == 0 {
			var err error

			limits, err = policies.Limits(cfg.Policy)
			if err != nil {
				logger.Error("rate limit policy unavailable",
					zap.String("policy", cfg.Policy),
					zap.Error(err),
				)
				_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

				return
			}
		}

		action := cfg.action(ctx)

		allowed, err := limiter.LogIdentityAction(ctx.Context(), action, limits, requestData(ctx))
		if err != nil {
			writeLimiterError(api, ctx, action, err, logger)

			return
		}

		if !allowed {
			logger.Debug("request rate limited",
				zap.String("action", action),
				zap.String("method", ctx.Method()),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

func writeLimiterError(api huma.API, ctx huma.Context, action string, err error, logger *zap.Logger) {
	fields := []zap.Field{zap.String("action", action), zap.Error(err)}

	switch {
	case errors.Is(err, ratelimit.ErrIdentityUnavailable):
		logger.Warn("request without client identity", fields...)
		_ = huma.WriteErr(api, ctx, http.StatusBadRequest, "client identity unavailable")
	default:
		logger.Error("rate limit check failed", fields...)
		_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")
	}
}

// requestData is passed to near-limit notifications.
func requestData(ctx huma.Context) map[string]string {
	data := map[string]string{"method": ctx.Method()}

	if op := ctx.Operation(); op != nil {
		data["path"] = op.Path
	}

	if meta, ok := RequestMetaFromContext(ctx.Context()); ok && meta.UserAgent != "" {
		data["userAgent"] = meta.UserAgent
	}

	return data
}
