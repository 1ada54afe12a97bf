// Package watcher reacts to filesystem changes in the library directory and
// triggers rescans. Events are debounced: one large copy into the library
// produces one rescan, not hundreds.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for the event storm to
// settle before firing.
const defaultDebounce = 2 * time.Second

// Watcher watches the library tree and invokes a callback after changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
}

// Options configures a Watcher.
type Options struct {
	Root     string        // Library directory to watch
	Debounce time.Duration // Settle time, defaults to 2s
	OnChange func()        // Invoked after events settle
	Logger   *slog.Logger
}

// New creates a watcher over the library root and all its subdirectories.
func New(opts Options) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		fs:       fs,
		root:     opts.Root,
		debounce: debounce,
		onChange: opts.OnChange,
		logger:   opts.Logger,
	}

	if err := w.addRecursive(opts.Root); err != nil {
		fs.Close() //nolint:errcheck // Already failing
		return nil, err
	}
	return w, nil
}

// Run processes events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			// New subdirectories need their own watch before anything
			// lands inside them.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory",
							"path", event.Name,
							"error", err,
						)
					}
				}
			}

			w.logger.Debug("library change", "op", event.Op.String(), "path", event.Name)

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("library changed, triggering rescan")
			w.onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// addRecursive registers a directory and every subdirectory beneath it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != "." && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}
