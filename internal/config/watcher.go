package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watcher reports changes to a set of config files. It watches their
// directories so editors that replace files on save are still seen.
type Watcher struct {
	logger   *slog.Logger
	onChange func()

	mu    sync.Mutex
	files map[string]struct{}
}

// NewWatcher returns a watcher that calls onChange, debounced, whenever one
// of files is written, created, renamed or removed.
func NewWatcher(files []string, onChange func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{logger: logger, onChange: onChange}
	w.SetFiles(files)
	return w
}

// SetFiles replaces the watched file set, typically after a reload changed
// the includes. It takes effect the next time Serve starts.
func (w *Watcher) SetFiles(files []string) {
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			set[abs] = struct{}{}
		}
	}
	w.mu.Lock()
	w.files = set
	w.mu.Unlock()
}

func (w *Watcher) snapshot() map[string]struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]struct{}, len(w.files))
	for f := range w.files {
		out[f] = struct{}{}
	}
	return out
}

// Serve watches until ctx is cancelled.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer fw.Close()

	files := w.snapshot()
	dirs := map[string]struct{}{}
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("config watcher: cannot watch directory", "dir", dir, "error", err)
		}
	}
	if len(dirs) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("config watcher: event channel closed")
			}
			if _, watched := files[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug("config file changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("config watcher: error channel closed")
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-fire:
			fire = nil
			w.onChange()
		}
	}
}
