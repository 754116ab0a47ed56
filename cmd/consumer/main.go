package main

import (
	"context"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/ratelog/internal/container"
	"github.com/serroba/ratelog/internal/messaging"
	"go.uber.org/zap"
)

// Options configures the near-limit event consumer.
type Options struct {
	RedisAddr string `default:"localhost:6379" help:"Redis server holding the event stream" short:"r"`
	LogFormat string `default:"console"        help:"Log format: json or console"`
}

func newInjector(options *Options) *do.Injector {
	injector := do.New()
	do.ProvideValue(injector, &container.Options{
		RedisAddr: options.RedisAddr,
		LogFormat: options.LogFormat,
	})
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	return injector
}

// consumer logs near-limit events published by the server with --notify=stream.
func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		injector := newInjector(options)
		logger := do.MustInvoke[*zap.Logger](injector)

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("consuming near-limit events", zap.String("redis", options.RedisAddr))
			<-ctx.Done()
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
