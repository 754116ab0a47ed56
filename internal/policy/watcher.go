package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Registry whenever its policy file changes.
//
// The parent directory is watched rather than the file so that editors that
// replace the file by rename keep being noticed.
type Watcher struct {
	path     string
	registry *Registry
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(path string, registry *Registry, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create policy watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()

		return nil, fmt.Errorf("resolve policy path: %w", err)
	}

	return &Watcher{
		path:     abs,
		registry: registry,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch policy directory: %w", err)
	}

	ctx, w.cancel = context.WithCancel(ctx)

	go w.run(ctx)

	w.logger.Info("watching policy file", zap.String("path", w.path))

	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Warn("policy watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if err := w.registry.Reload(w.path); err != nil {
		w.logger.Error("policy reload failed, keeping previous policies",
			zap.String("path", w.path),
			zap.Error(err),
		)
	}
}

// Shutdown stops watching. A reload already scheduled is cancelled.
func (w *Watcher) Shutdown() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
