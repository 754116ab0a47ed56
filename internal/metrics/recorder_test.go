package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/ratelog/internal/metrics"
	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/serroba/ratelog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Run("counts decisions by result and limit", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		rec := metrics.NewRecorder(reg)

		rec.ObserveDecision(true, "", time.Millisecond)
		rec.ObserveDecision(true, "", time.Millisecond)
		rec.ObserveDecision(false, "3/m", 2*time.Millisecond)

		count, err := testutil.GatherAndCount(reg, "ratelog_decisions_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count, "one series per result/limit pair")

		count, err = testutil.GatherAndCount(reg, "ratelog_decision_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("counts notifications and store faults", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		rec := metrics.NewRecorder(reg)

		rec.ObserveNotification("3/m")
		rec.ObserveNotification("4/h")
		rec.ObserveStoreFault("corrupt")

		count, err := testutil.GatherAndCount(reg, "ratelog_near_limit_notifications_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = testutil.GatherAndCount(reg, "ratelog_store_faults_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("panics on double registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		metrics.NewRecorder(reg)

		assert.Panics(t, func() { metrics.NewRecorder(reg) })
	})
}

func TestRecorder_WithLimiter(t *testing.T) {
	reg := prometheus.NewRegistry()
	clock := ratelimit.NewManualClock(time.Unix(1_700_000_000, 0))
	limiter := ratelimit.New(store.NewMemoryStore(),
		ratelimit.WithClock(clock),
		ratelimit.WithRecorder(metrics.NewRecorder(reg)),
	)

	for range 3 {
		_, err := limiter.Log(context.Background(), "k", []string{"2/m"}, nil)
		require.NoError(t, err)
	}

	count, err := testutil.GatherAndCount(reg, "ratelog_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "allowed and rejected series")

	count, err = testutil.GatherAndCount(reg, "ratelog_near_limit_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_EquivalentLimitsShareSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	clock := ratelimit.NewManualClock(time.Unix(1_700_000_000, 0))
	limiter := ratelimit.New(store.NewMemoryStore(),
		ratelimit.WithClock(clock),
		ratelimit.WithRecorder(metrics.NewRecorder(reg)),
	)

	for _, limit := range []string{"1/m", "01/m", "001/m", "+1/m"} {
		_, err := limiter.Log(context.Background(), "k", []string{limit}, nil)
		require.NoError(t, err)
	}

	count, err := testutil.GatherAndCount(reg, "ratelog_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one allowed and one rejected series")

	count, err = testutil.GatherAndCount(reg, "ratelog_near_limit_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
