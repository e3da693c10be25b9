// Package watch reports changes to a single file.
//
// The parent directory is watched rather than the file itself, so changes
// made by atomic replace (write temp, rename over) are still seen. Bursts of
// events are coalesced: the callback runs once the file has been quiet for
// the debounce window.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
)

// DefaultDebounce is the quiet period used when none is given.
const DefaultDebounce = 300 * time.Millisecond

// relevant are the operations that can change the file's content.
const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// Watcher watches one file.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New starts watching path. The file need not exist yet; its directory
// must.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPathResolution, "watch %s: %v", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "creating file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(errors.MarkIO(err, filepath.Dir(abs)), "watching %s", abs)
	}
	return &Watcher{path: abs, debounce: debounce, fsw: fsw}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls onChange after each debounced burst of changes until ctx is
// done. Errors from onChange are logged and do not stop the loop. Run
// returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	logger := logging.FromContext(ctx).With(slog.String("path", w.path))
	base := filepath.Base(w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base || ev.Op&relevant == 0 {
				continue
			}
			logger.Log(ctx, logging.LevelTrace, "file event", slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", slog.Any("error", err))
		case <-fire:
			fire = nil
			logger.Debug("change detected")
			if err := onChange(ctx); err != nil {
				logger.Error("change handler failed", slog.Any("error", err))
			}
		}
	}
}
