package store

import (
	"encoding/json"
	"fmt"

	"github.com/serroba/ratelog/internal/ratelimit"
)

const snapshotVersion = 1

// document is the persisted form of a snapshot.
type document struct {
	Version int                `json:"version"`
	Events  ratelimit.Snapshot `json:"events"`
}

func encodeSnapshot(data ratelimit.Snapshot) ([]byte, error) {
	if data == nil {
		data = ratelimit.Snapshot{}
	}

	return json.Marshal(document{Version: snapshotVersion, Events: data})
}

func decodeSnapshot(raw []byte) (ratelimit.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ratelimit.ErrCorruptSnapshot, err)
	}

	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ratelimit.ErrCorruptSnapshot, doc.Version)
	}

	if doc.Events == nil {
		return ratelimit.Snapshot{}, nil
	}

	return doc.Events, nil
}
