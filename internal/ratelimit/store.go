package ratelimit

import (
	"context"
	"errors"
	"maps"
	"slices"
)

// ErrCorruptSnapshot is returned by a Store when the persisted data cannot be
// decoded. The limiter treats it as an empty snapshot.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot maps a key hash to the epoch seconds of its recorded events.
type Snapshot map[string][]int64

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}

	return out
}

// Keys returns the key hashes in sorted order.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Store persists the whole snapshot as a single blob.
type Store interface {
	// Load returns the stored snapshot, or an empty one if nothing is stored.
	Load(ctx context.Context) (Snapshot, error)
	// Persist overwrites the stored snapshot.
	Persist(ctx context.Context, data Snapshot) error
	// Reset removes the stored snapshot.
	Reset(ctx context.Context) error
}

// Prune drops timestamps older than the horizon relative to now and removes
// keys left without timestamps. It reports whether anything was dropped.
func Prune(data Snapshot, now int64) (Snapshot, bool) {
	minTime := now - int64(Horizon.Seconds())
	changed := false
	pruned := make(Snapshot, len(data))

	for key, times := range data {
		kept := make([]int64, 0, len(times))

		for _, t := range times {
			if t >= minTime {
				kept = append(kept, t)
			} else {
				changed = true
			}
		}

		if len(kept) == 0 {
			changed = true

			continue
		}

		pruned[key] = kept
	}

	return pruned, changed
}
