// Package watch regenerates example configs when deployment files
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches rapid-fire events (editor save bursts, rsync)
// into a single regeneration.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a callback after debounced filesystem changes under a
// set of paths. Directories are watched recursively.
type Watcher struct {
	Paths    []string
	Debounce time.Duration // DefaultDebounce when zero
	Log      *slog.Logger
	OnChange func() error
}

// Run blocks until ctx is cancelled, invoking OnChange after each
// debounced batch of changes. Errors from OnChange are logged, not fatal:
// the operator fixes the input and saves again.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, p := range w.Paths {
		if err := addRecursive(fsw, p); err != nil {
			return err
		}
	}
	debounce := w.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	w.Log.Info("watching for changes", "paths", w.Paths)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Freshly created subdirectories (e.g. a new role) join the
			// watch.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, ev.Name); err != nil {
						w.Log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			w.Log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("watch error", "error", err)
		case <-fire:
			timer = nil
			fire = nil
			if err := w.OnChange(); err != nil {
				w.Log.Error("regeneration failed", "error", err)
			}
		}
	}
}

// addRecursive registers path with the watcher; directories are walked so
// nested role files are covered (fsnotify itself is non-recursive).
func addRecursive(w *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.Add(path)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
