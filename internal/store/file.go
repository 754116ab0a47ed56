package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/serroba/ratelog/internal/ratelimit"
)

// DefaultFileName is the snapshot file name used in the system temp directory.
const DefaultFileName = "ratelog-events.json"

// DefaultFilePath returns the snapshot location used when none is configured.
func DefaultFilePath() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// FileStore keeps the snapshot in a single JSON file.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so readers see either the old or the new snapshot.
type FileStore struct {
	path       string
	invalidate func(path string)
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithInvalidator registers a hook called after the file is rewritten or
// removed, for layers that cache file contents. The hook cannot fail the write.
func WithInvalidator(fn func(path string)) FileOption {
	return func(f *FileStore) { f.invalidate = fn }
}

// NewFileStore creates a file-backed snapshot store. An empty path selects
// DefaultFilePath.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}

	f := &FileStore{path: path}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context) (ratelimit.Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ratelimit.Snapshot{}, nil
		}

		// unreadable counts as corrupt so the limiter starts over
		return nil, fmt.Errorf("%w: read %s: %w", ratelimit.ErrCorruptSnapshot, f.path, err)
	}

	return decodeSnapshot(raw)
}

func (f *FileStore) Persist(_ context.Context, data ratelimit.Snapshot) error {
	raw, err := encodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write temp snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replace snapshot: %w", err)
	}

	f.invalidated()

	return nil
}

func (f *FileStore) Reset(_ context.Context) error {
	if err := os.Remove(f.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("remove snapshot: %w", err)
	}

	f.invalidated()

	return nil
}

// Ping checks that the snapshot directory is reachable.
func (f *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(f.path))
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(f.path))
	}

	return nil
}

func (f *FileStore) invalidated() {
	if f.invalidate != nil {
		f.invalidate(f.path)
	}
}

// Compile-time check.
var _ ratelimit.Store = (*FileStore)(nil)
