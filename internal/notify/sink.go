package notify

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/ratelog/internal/messaging"
	"go.uber.org/zap"
)

// Sink receives near-limit events on the consuming side.
type Sink interface {
	Save(ctx context.Context, event *NearLimitEvent) error
}

// LogSink logs every event it receives.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Save(_ context.Context, event *NearLimitEvent) error {
	s.logger.Info("near-limit event received",
		zap.String("action", event.Action),
		zap.String("key", event.Key),
		zap.String("limit", event.Limit),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

// Handler adapts a Sink to a stream consumer.
func Handler(sink Sink) messaging.Handler[NearLimitEvent] {
	return sink.Save
}

// NewConsumer consumes TopicNearLimit into sink.
func NewConsumer(
	subscriber message.Subscriber,
	sink Sink,
	logger *zap.Logger,
) *messaging.Consumer[NearLimitEvent] {
	return messaging.NewConsumer(subscriber, TopicNearLimit, Handler(sink), logger)
}
