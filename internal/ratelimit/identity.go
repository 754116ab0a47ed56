package ratelimit

import (
	"context"
	"errors"
)

// ErrIdentityUnavailable is returned when an identity-keyed call has no
// identity to key on.
var ErrIdentityUnavailable = errors.New("caller identity unavailable")

// identityPrefix namespaces identity keys from caller-chosen keys.
const identityPrefix = "ip-"

// IdentityResolver supplies the identity of the current caller.
type IdentityResolver interface {
	Identity(ctx context.Context) (string, bool)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context) (string, bool)

func (f IdentityResolverFunc) Identity(ctx context.Context) (string, bool) {
	return f(ctx)
}

type identityKey struct{}

// ContextWithIdentity attaches the caller identity (usually the client IP) to ctx.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity attached by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(identityKey{}).(string)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// ContextIdentity resolves the identity from the request context.
var ContextIdentity = IdentityResolverFunc(IdentityFromContext)
