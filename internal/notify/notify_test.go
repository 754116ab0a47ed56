package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/ratelog/internal/messaging"
	"github.com/serroba/ratelog/internal/notify"
	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var occurred = time.Unix(1_700_000_000, 0).UTC()

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("stream down") }
func (failingPublisher) Close() error                              { return nil }

type capturingSink struct {
	events chan *notify.NearLimitEvent
}

func (s *capturingSink) Save(_ context.Context, event *notify.NearLimitEvent) error {
	s.events <- event

	return nil
}

func TestPublisher_DeliversToConsumer(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	sink := &capturingSink{events: make(chan *notify.NearLimitEvent, 1)}

	consumer := notify.NewConsumer(pubsub, sink, zap.NewNop())
	require.NoError(t, consumer.Start(context.Background()))

	t.Cleanup(func() { _ = consumer.Shutdown() })

	publisher := notify.NewPublisher(
		messaging.NewPublishFunc(pubsub, notify.TopicNearLimit),
		ratelimit.NewManualClock(occurred),
		zap.NewNop(),
	)

	publisher.NearLimit(context.Background(), ratelimit.Notification{
		Action: "login",
		Key:    "ip-203.0.113.7",
		Limit:  "3/m",
		Data:   map[string]any{"path": "/ping"},
	})

	select {
	case event := <-sink.events:
		assert.Equal(t, "login", event.Action)
		assert.Equal(t, "ip-203.0.113.7", event.Key)
		assert.Equal(t, "3/m", event.Limit)
		assert.Equal(t, map[string]any{"path": "/ping"}, event.Data)
		assert.True(t, occurred.Equal(event.OccurredAt))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublisher_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	publisher := notify.NewPublisher(
		messaging.NewPublishFunc(failingPublisher{}, notify.TopicNearLimit),
		ratelimit.NewManualClock(occurred),
		zap.New(core),
	)

	assert.NotPanics(t, func() {
		publisher.NearLimit(context.Background(), ratelimit.Notification{Key: "k", Limit: "1/s"})
	})

	entries := logs.FilterMessage("failed to publish near-limit event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1/s", entries[0].ContextMap()["limit"])
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notifier := notify.NewLogger(zap.New(core))

	notifier.NearLimit(context.Background(), ratelimit.Notification{Action: "a", Key: "k", Limit: "4/h"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "k", entries[0].ContextMap()["key"])
	assert.Equal(t, "4/h", entries[0].ContextMap()["limit"])
}

func TestFanout(t *testing.T) {
	var order []string

	record := func(name string) ratelimit.Notifier {
		return ratelimit.NotifierFunc(func(_ context.Context, n ratelimit.Notification) {
			order = append(order, name+":"+n.Limit)
		})
	}

	fanout := notify.Fanout{record("first"), record("second")}
	fanout.NearLimit(context.Background(), ratelimit.Notification{Limit: "2/d"})

	assert.Equal(t, []string{"first:2/d", "second:2/d"}, order)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := notify.NewLogSink(zap.New(core))

	err := notify.Handler(sink)(context.Background(), &notify.NearLimitEvent{Key: "k", Limit: "3/m", OccurredAt: occurred})

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("near-limit event received").Len())
}
