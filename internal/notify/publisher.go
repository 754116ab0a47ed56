package notify

import (
	"context"

	"github.com/serroba/ratelog/internal/messaging"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// Publisher forwards notifications to a message stream. Publish failures are
// logged and never reach the limiter.
type Publisher struct {
	publish messaging.Publish[NearLimitEvent]
	clock   ratelimit.Clock
	logger  *zap.Logger
}

func NewPublisher(publish messaging.Publish[NearLimitEvent], clock ratelimit.Clock, logger *zap.Logger) *Publisher {
	return &Publisher{publish: publish, clock: clock, logger: logger}
}

func (p *Publisher) NearLimit(ctx context.Context, n ratelimit.Notification) {
	if err := p.publish(ctx, newEvent(n, p.clock.Now())); err != nil {
		p.logger.Error("failed to publish near-limit event",
			zap.String("action", n.Action),
			zap.String("limit", n.Limit),
			zap.Error(err),
		)
	}
}

// Logger writes notifications to the log.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) NearLimit(_ context.Context, n ratelimit.Notification) {
	l.logger.Info("key near rate limit",
		zap.String("action", n.Action),
		zap.String("key", n.Key),
		zap.String("limit", n.Limit),
		zap.Any("data", n.Data),
	)
}

// Fanout delivers each notification to every notifier in order.
type Fanout []ratelimit.Notifier

func (f Fanout) NearLimit(ctx context.Context, n ratelimit.Notification) {
	for _, notifier := range f {
		notifier.NearLimit(ctx, n)
	}
}

var (
	_ ratelimit.Notifier = (*Publisher)(nil)
	_ ratelimit.Notifier = (*Logger)(nil)
	_ ratelimit.Notifier = Fanout(nil)
)
