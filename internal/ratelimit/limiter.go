package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter enforces sliding-window limits on keys whose event history lives in
// a Store.
//
// Every call loads the whole snapshot, decides, and writes the whole snapshot
// back when anything changed. Nothing is locked between load and persist, so two
// concurrent calls can overwrite each other's events. WithSerializedAccess
// removes that race for callers sharing one Limiter.
type Limiter struct {
	store     Store
	clock     Clock
	resolver  IdentityResolver
	recorder  Recorder
	logger    *zap.Logger
	namespace string

	// held across load/persist when serialized access is enabled
	cycle *sync.Mutex

	mu       sync.RWMutex
	notifier Notifier
	override string
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(l *Limiter) { l.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(l *Limiter) { l.recorder = recorder }
}

// WithNamespace sets the action namespace used by Log and LogIdentity.
func WithNamespace(namespace string) Option {
	return func(l *Limiter) { l.namespace = namespace }
}

// WithIdentityResolver sets where LogIdentity finds the caller identity when no
// override is set.
func WithIdentityResolver(resolver IdentityResolver) Option {
	return func(l *Limiter) { l.resolver = resolver }
}

// WithNotifier sets the initial near-limit notifier.
func WithNotifier(notifier Notifier) Option {
	return func(l *Limiter) { l.notifier = notifier }
}

// WithSerializedAccess runs each load/decide/persist cycle under a mutex.
// It only orders calls made through this Limiter.
func WithSerializedAccess() Option {
	return func(l *Limiter) { l.cycle = &sync.Mutex{} }
}

// New creates a Limiter backed by store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		clock:    SystemClock{},
		resolver: ContextIdentity,
		recorder: NoopRecorder{},
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// SetNotifier replaces the near-limit notifier. A nil notifier disables
// notifications.
func (l *Limiter) SetNotifier(notifier Notifier) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.notifier = notifier
}

// SetIdentityOverride makes LogIdentity key on identity instead of resolving
// it. An empty identity removes the override.
func (l *Limiter) SetIdentityOverride(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.override = identity
}

// Log records an event for key in the limiter's namespace if none of the
// limits is reached. It returns false when a limit rejected the event.
// Limits use the form "<N>/<unit>" with unit s, m, h or d, e.g. "10/m".
func (l *Limiter) Log(ctx context.Context, key string, limits []string, data any) (bool, error) {
	return l.LogAction(ctx, l.namespace, key, limits, data)
}

// LogIdentity is Log keyed on the caller identity.
func (l *Limiter) LogIdentity(ctx context.Context, limits []string, data any) (bool, error) {
	return l.LogIdentityAction(ctx, l.namespace, limits, data)
}

// LogIdentityAction is LogAction keyed on the caller identity.
func (l *Limiter) LogIdentityAction(ctx context.Context, action string, limits []string, data any) (bool, error) {
	identity, ok := l.identity(ctx)
	if !ok {
		return false, ErrIdentityUnavailable
	}

	return l.LogAction(ctx, action, identityPrefix+identity, limits, data)
}

// LogAction is Log with an explicit action namespace, so the same key can be
// limited independently per action.
func (l *Limiter) LogAction(ctx context.Context, action, key string, limits []string, data any) (bool, error) {
	parsed, err := ParseLimits(limits)
	if err != nil {
		return false, err
	}

	start := time.Now()

	if l.cycle != nil {
		l.cycle.Lock()
		defer l.cycle.Unlock()
	}

	now := l.clock.Now().Unix()
	hash := HashKey(action, key)

	loaded, err := l.load(ctx)
	if err != nil {
		return false, err
	}

	snapshot, changed := Prune(loaded, now)
	times := snapshot[hash]

	allowed, rejectedBy := l.evaluate(ctx, parsed, times, now, Notification{
		Action: action,
		Key:    key,
		Data:   data,
	})

	if allowed {
		snapshot[hash] = append(times, now)
		changed = true
	}

	if changed {
		if err := l.store.Persist(ctx, snapshot); err != nil {
			l.recorder.ObserveStoreFault("persist")
			l.logger.Error("failed to persist rate limit snapshot",
				zap.String("action", action),
				zap.Error(err),
			)

			return false, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	l.recorder.ObserveDecision(allowed, rejectedBy, time.Since(start))

	if !allowed {
		l.logger.Debug("rate limit reached",
			zap.String("action", action),
			zap.String("key_hash", hash),
			zap.String("limit", rejectedBy),
		)
	}

	return allowed, nil
}

// Reset removes the history of every key.
func (l *Limiter) Reset(ctx context.Context) error {
	if l.cycle != nil {
		l.cycle.Lock()
		defer l.cycle.Unlock()
	}

	if err := l.store.Reset(ctx); err != nil {
		l.recorder.ObserveStoreFault("reset")

		return fmt.Errorf("reset snapshot: %w", err)
	}

	return nil
}

// evaluate walks the limits in order. The first limit already at its threshold
// rejects the call and hides every limit after it.
func (l *Limiter) evaluate(ctx context.Context, limits []Limit, times []int64, now int64, n Notification) (bool, string) {
	notifier := l.currentNotifier()

	for _, limit := range limits {
		minTime := now - int64(limit.Window().Seconds())
		matched := 0

		for _, t := range times {
			if t >= minTime {
				matched++
			}
		}

		if matched+1 == limit.Threshold {
			l.recorder.ObserveNotification(limit.Canonical())

			if notifier != nil {
				n.Limit = limit.String()
				notifier.NearLimit(ctx, n)
			}
		}

		if matched >= limit.Threshold {
			return false, limit.Canonical()
		}
	}

	return true, ""
}

func (l *Limiter) load(ctx context.Context) (Snapshot, error) {
	data, err := l.store.Load(ctx)
	if err == nil {
		return data, nil
	}

	if errors.Is(err, ErrCorruptSnapshot) {
		l.recorder.ObserveStoreFault("corrupt")
		l.logger.Warn("rate limit snapshot unreadable, starting empty", zap.Error(err))

		return Snapshot{}, nil
	}

	l.recorder.ObserveStoreFault("load")

	return nil, fmt.Errorf("load snapshot: %w", err)
}

func (l *Limiter) currentNotifier() Notifier {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.notifier
}

func (l *Limiter) identity(ctx context.Context) (string, bool) {
	l.mu.RLock()
	override := l.override
	l.mu.RUnlock()

	if override != "" {
		return override, true
	}

	if l.resolver == nil {
		return "", false
	}

	return l.resolver.Identity(ctx)
}
