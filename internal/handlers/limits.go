package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// Limiter is the part of ratelimit.Limiter the admin routes use.
type Limiter interface {
	LogAction(ctx context.Context, action, key string, limits []string, data any) (bool, error)
	Reset(ctx context.Context) error
}

// LimitsHandler exposes the limiter over HTTP.
type LimitsHandler struct {
	limiter Limiter
	logger  *zap.Logger
}

func NewLimitsHandler(limiter Limiter, logger *zap.Logger) *LimitsHandler {
	return &LimitsHandler{limiter: limiter, logger: logger}
}

func (h *LimitsHandler) Log(ctx context.Context, req *LogRequest) (*LogResponse, error) {
	allowed, err := h.limiter.LogAction(ctx, req.Body.Action, req.Body.Key, req.Body.Limits, req.Body.Data)
	if err != nil {
		if errors.Is(err, ratelimit.ErrMalformedLimit) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("failed to log event",
			zap.String("action", req.Body.Action),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to log event")
	}

	resp := &LogResponse{}
	resp.Body.Allowed = allowed

	return resp, nil
}

func (h *LimitsHandler) Reset(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := h.limiter.Reset(ctx); err != nil {
		h.logger.Error("failed to reset limits", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to reset limits")
	}

	h.logger.Info("rate limit history reset")

	return &struct{}{}, nil
}

// Ping is a demo route; the rate limiting happens in middleware.
func Ping(_ context.Context, _ *struct{}) (*PingResponse, error) {
	resp := &PingResponse{}
	resp.Body.Message = "pong"

	return resp, nil
}
