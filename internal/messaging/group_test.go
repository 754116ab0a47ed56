package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/ratelog/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	topic       string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Topic() string { return m.topic }

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	return m.shutdownErr
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts all consumers", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{topic: "a"}
		second := &mockRunnable{topic: "b"}

		group.Add(first)
		group.Add(second)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, first.started)
		assert.True(t, second.started)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{topic: "a"}
		second := &mockRunnable{topic: "b", startErr: errors.New("start error")}

		group.Add(first)
		group.Add(second)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "b")
		assert.True(t, first.shutdown)
		assert.False(t, second.started)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers and closes the subscriber", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		consumer := &mockRunnable{topic: "a"}

		group.Add(consumer)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.True(t, consumer.shutdown)
		assert.True(t, sub.closed)
	})

	t.Run("joins every error", func(t *testing.T) {
		first := errors.New("shutdown error 1")
		second := errors.New("shutdown error 2")
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		one := &mockRunnable{topic: "a", shutdownErr: first}
		two := &mockRunnable{topic: "b", shutdownErr: second}

		group.Add(one)
		group.Add(two)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
		assert.True(t, two.shutdown)
	})
}
