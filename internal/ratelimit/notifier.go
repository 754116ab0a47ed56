package ratelimit

import "context"

// Notification describes a call that used the last slot of a limit: the call
// was admitted and the next one will be rejected by Limit.
type Notification struct {
	Action string
	Key    string
	Limit  string
	Data   any
}

// Notifier is called at most once per limit per call.
type Notifier interface {
	NearLimit(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) NearLimit(ctx context.Context, n Notification) {
	f(ctx, n)
}
