package policy

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Registry serves the current policy Set and swaps it atomically on reload.
type Registry struct {
	current atomic.Pointer[Set]
	logger  *zap.Logger
}

func NewRegistry(initial *Set, logger *zap.Logger) *Registry {
	r := &Registry{logger: logger}
	r.current.Store(initial)

	return r
}

// Limits resolves a policy name against the current Set.
func (r *Registry) Limits(name string) ([]string, error) {
	limits, ok := r.current.Load().Limits(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}

	return limits, nil
}

func (r *Registry) Current() *Set {
	return r.current.Load()
}

// Reload replaces the current Set with the contents of path. On error the
// current Set stays in place.
func (r *Registry) Reload(path string) error {
	set, err := Load(path)
	if err != nil {
		return err
	}

	r.current.Store(set)
	r.logger.Info("policies reloaded",
		zap.String("path", path),
		zap.Strings("policies", set.Names()),
	)

	return nil
}
