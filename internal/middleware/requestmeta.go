package middleware

import (
	"context"
	"net"
	"net/netip"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelog/internal/ratelimit"
)

type requestMetaKey struct{}

// RequestMeta describes the client of the current request.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// RequestMetaFromContext returns the metadata stored by the RequestMeta
// middleware.
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)

	return meta, ok
}

// RequestMetaMiddleware stores the client metadata on the request context and
// makes the client IP the rate limiting identity. Forwarding headers are only
// read when the connecting peer is one of the trusted proxies.
func RequestMetaMiddleware(_ huma.API, trusted TrustedProxies) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := RequestMeta{
			ClientIP:  clientIP(ctx, trusted),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		newCtx := context.WithValue(ctx.Context(), requestMetaKey{}, meta)
		if meta.ClientIP != "" {
			newCtx = ratelimit.ContextWithIdentity(newCtx, meta.ClientIP)
		}

		next(huma.WithContext(ctx, newCtx))
	}
}

func clientIP(ctx huma.Context, trusted TrustedProxies) string {
	peer := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	if !trusted.Trusts(peer) {
		return peer
	}

	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if client, ok := trusted.forwardedClient(xff); ok {
			return client
		}
	}

	if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}

	return peer
}
