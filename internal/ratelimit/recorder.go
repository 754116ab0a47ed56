package ratelimit

import "time"

// Recorder receives limiter measurements.
type Recorder interface {
	// ObserveDecision records a finished call. limit is the rejecting limit,
	// empty when the call was admitted.
	ObserveDecision(allowed bool, limit string, elapsed time.Duration)
	ObserveNotification(limit string)
	// ObserveStoreFault records a storage problem for op (load, persist, reset
	// or corrupt).
	ObserveStoreFault(op string)
}

// NoopRecorder discards every measurement.
type NoopRecorder struct{}

func (NoopRecorder) ObserveDecision(bool, string, time.Duration) {}
func (NoopRecorder) ObserveNotification(string)                  {}
func (NoopRecorder) ObserveStoreFault(string)                    {}
