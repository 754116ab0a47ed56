package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelog/internal/middleware"
	"github.com/serroba/ratelog/internal/policy"
)

// RegisterRoutes registers the demo and admin routes.
func RegisterRoutes(api huma.API, limits *LimitsHandler) {
	// limited per client address by the "ping" policy
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
		Summary:     "Ping",
		Description: "Rate limited per client address by the ping policy.",
		Tags:        []string{"Demo"},
		Metadata: map[string]any{
			middleware.MetadataKey: middleware.EndpointConfig{Policy: policy.PingPolicy},
		},
	}, Ping)

	huma.Register(api, huma.Operation{
		OperationID: "log-event",
		Method:      http.MethodPost,
		Path:        "/limits/log",
		Summary:     "Log an event",
		Description: "Records an event for a key if none of the limits is reached.",
		Tags:        []string{"Limits"},
	}, limits.Log)

	huma.Register(api, huma.Operation{
		OperationID:   "reset-limits",
		Method:        http.MethodDelete,
		Path:          "/limits",
		Summary:       "Reset all limits",
		Description:   "Removes the event history of every key.",
		Tags:          []string{"Limits"},
		DefaultStatus: http.StatusNoContent,
	}, limits.Reset)
}
