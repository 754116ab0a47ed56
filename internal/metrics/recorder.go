// Package metrics exposes limiter activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/serroba/ratelog/internal/ratelimit"
)

const namespace = "ratelog"

// Recorder implements ratelimit.Recorder with Prometheus collectors.
type Recorder struct {
	decisions     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	storeFaults   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		// limit is empty for admitted events
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Rate limit decisions by result and rejecting limit.",
		}, []string{"result", "limit"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "near_limit_notifications_total",
			Help:      "Near-limit notifications by limit.",
		}, []string{"limit"}),
		storeFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_faults_total",
			Help:      "Snapshot store failures by operation.",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Time spent loading, evaluating and persisting per call.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"result"}),
	}

	reg.MustRegister(r.decisions, r.notifications, r.storeFaults, r.duration)

	return r
}

func (r *Recorder) ObserveDecision(allowed bool, limit string, elapsed time.Duration) {
	result := resultLabel(allowed)

	r.decisions.WithLabelValues(result, limit).Inc()
	r.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveNotification(limit string) {
	r.notifications.WithLabelValues(limit).Inc()
}

func (r *Recorder) ObserveStoreFault(op string) {
	r.storeFaults.WithLabelValues(op).Inc()
}

func resultLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}

	return "rejected"
}

// Compile-time check.
var _ ratelimit.Recorder = (*Recorder)(nil)
