// Package watch re-runs a callback whenever a query state file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/satishbabariya/querycraft/internal/debug"
)

// DefaultDebounce collapses bursts of writes from editors into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Callback is invoked with the watched path after it settles.
type Callback func(ctx context.Context, path string) error

// Watcher watches a single file.
type Watcher struct {
	file     string
	callback Callback
	debounce time.Duration
	watcher  *fsnotify.Watcher
	// OnError receives callback and watcher errors. Errors never stop the
	// loop.
	OnError func(error)
}

// NewWatcher watches file. Its directory is watched so that editors which
// save by rename are still seen.
func NewWatcher(file string, debounce time.Duration, callback Callback) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		debounce: debounce,
		watcher:  fw,
		OnError:  func(err error) { debug.Warn("Watch error", "error", err) },
	}, nil
}

// File returns the absolute path being watched.
func (w *Watcher) File() string {
	return w.file
}

// Run calls the callback once, then again after every settled change, until
// ctx is done. An error from the first call is returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(ctx, w.file); err != nil {
		return fmt.Errorf("initial run failed: %w", err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			debug.Debug("Watch event", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.callback(ctx, w.file); err != nil {
				w.OnError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.OnError(err)

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	p, err := filepath.Abs(event.Name)
	return err == nil && p == w.file
}
