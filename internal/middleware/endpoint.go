package middleware

import "github.com/danielgtaylor/huma/v2"

// MetadataKey is the huma.Operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig attaches rate limiting to a route. Routes without one are
// not limited.
type EndpointConfig struct {
	// Policy names a limit set in the policy registry.
	Policy string

	// Limits are used instead of Policy when set.
	Limits []string

	// Action namespaces the route's history. It defaults to Policy, then to
	// the route path.
	Action string

	Disabled bool
}

// EndpointConfigFrom returns the route's EndpointConfig, or nil.
func EndpointConfigFrom(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

func (c *EndpointConfig) action(ctx huma.Context) string {
	switch {
	case c.Action != "":
		return c.Action
	case c.Policy != "":
		return c.Policy
	}

	if op := ctx.Operation(); op != nil {
		return op.Method + " " + op.Path
	}

	return ""
}
