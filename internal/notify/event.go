// Package notify delivers near-limit notifications outside the limiter.
package notify

import (
	"time"

	"github.com/serroba/ratelog/internal/messaging"
	"github.com/serroba/ratelog/internal/ratelimit"
)

// TopicNearLimit carries NearLimitEvent messages.
var TopicNearLimit = messaging.Topic[NearLimitEvent]("ratelog.near_limit")

// NearLimitEvent is emitted when a key is one event away from a limit.
type NearLimitEvent struct {
	Action     string    `json:"action,omitempty"`
	Key        string    `json:"key"`
	Limit      string    `json:"limit"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newEvent(n ratelimit.Notification, at time.Time) *NearLimitEvent {
	return &NearLimitEvent{
		Action:     n.Action,
		Key:        n.Key,
		Limit:      n.Limit,
		Data:       n.Data,
		OccurredAt: at,
	}
}
