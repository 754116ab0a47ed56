package container

import (
	"context"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ratelog/internal/messaging"
	"github.com/serroba/ratelog/internal/metrics"
	"github.com/serroba/ratelog/internal/notify"
	"github.com/serroba/ratelog/internal/policy"
	"github.com/serroba/ratelog/internal/ratelimit"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group of cmd/consumer.
const ConsumerGroupName = "ratelog-notifications"

// MetricsPackage provides the Prometheus registry and the limiter recorder.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(injector, func(i *do.Injector) (*metrics.Recorder, error) {
		return metrics.NewRecorder(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

// PublisherGroupPackage provides the Redis stream publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     do.MustInvoke[*redis.Client](i),
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumers of near-limit events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*redis.Client](i),
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: ConsumerGroupName,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(notify.NewConsumer(subscriber, notify.NewLogSink(logger), logger))

		return group, nil
	})
}

// NotifierPackage provides the near-limit notifier selected by Options.Notify.
// The limiter does not invoke it for "none".
func NotifierPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Notifier, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Notify {
		case NotifyStream:
			group := do.MustInvoke[*messaging.PublisherGroup](i)
			publish := messaging.NewPublishFunc(group.Publisher(), notify.TopicNearLimit)

			return notify.Fanout{
				notify.NewLogger(logger),
				notify.NewPublisher(publish, ratelimit.SystemClock{}, logger),
			}, nil
		default:
			return notify.NewLogger(logger), nil
		}
	})
}

// PolicyPackage provides the policy registry and, when watching is enabled,
// a started watcher.
func PolicyPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*policy.Registry, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.PolicyFile == "" {
			return policy.NewRegistry(policy.Default(), logger), nil
		}

		set, err := policy.Load(opts.PolicyFile)
		if err != nil {
			return nil, err
		}

		logger.Info("policies loaded",
			zap.String("path", opts.PolicyFile),
			zap.Strings("policies", set.Names()),
		)

		return policy.NewRegistry(set, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*policy.Watcher, error) {
		opts := do.MustInvoke[*Options](i)

		w, err := policy.NewWatcher(
			opts.PolicyFile,
			do.MustInvoke[*policy.Registry](i),
			policy.DefaultDebounce,
			do.MustInvoke[*zap.Logger](i),
		)
		if err != nil {
			return nil, err
		}

		if err := w.Start(context.Background()); err != nil {
			_ = w.Shutdown()

			return nil, err
		}

		return w, nil
	})
}

// RateLimitPackage provides *ratelimit.Limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		s, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		limiterOpts := []ratelimit.Option{
			ratelimit.WithLogger(do.MustInvoke[*zap.Logger](i)),
			ratelimit.WithRecorder(do.MustInvoke[*metrics.Recorder](i)),
			ratelimit.WithNamespace(opts.Namespace),
		}

		if opts.Serialize {
			limiterOpts = append(limiterOpts, ratelimit.WithSerializedAccess())
		}

		if opts.Notify != NotifyNone {
			notifier, err := do.Invoke[ratelimit.Notifier](i)
			if err != nil {
				return nil, err
			}

			limiterOpts = append(limiterOpts, ratelimit.WithNotifier(notifier))
		}

		return ratelimit.New(s, limiterOpts...), nil
	})
}
