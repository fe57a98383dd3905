package mirror

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

// Backoff bounds for sustained watcher errors (e.g. kernel queue overflow).
const (
	watchErrInitBackoff = time.Second
	watchErrMaxBackoff  = 30 * time.Second
	watchErrBackoffMult = 2
)

// FsWatcher is the subset of *fsnotify.Watcher the Watcher uses.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct {
	w *fsnotify.Watcher
}

func (f *fsnotifyWrapper) Add(name string) error         { return f.w.Add(name) }
func (f *fsnotifyWrapper) Close() error                  { return f.w.Close() }
func (f *fsnotifyWrapper) Events() <-chan fsnotify.Event { return f.w.Events }
func (f *fsnotifyWrapper) Errors() <-chan error          { return f.w.Errors }

// Watcher turns source tree changes into early-pass triggers. It never
// mutates anything; it only nudges the Runner.
type Watcher struct {
	root     string
	filter   *Filter
	debounce time.Duration
	logger   *slog.Logger
	trigger  chan struct{}

	newWatcher func() (FsWatcher, error)
}

// NewWatcher creates a Watcher over sourceRoot. Bursts of events closer
// together than debounce produce a single trigger.
func NewWatcher(sourceRoot string, filter *Filter, debounce time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		root:     sourceRoot,
		filter:   filter,
		debounce: debounce,
		logger:   Options{Logger: logger}.logger(),
		trigger:  make(chan struct{}, 1),
		newWatcher: func() (FsWatcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, err
			}

			return &fsnotifyWrapper{w: w}, nil
		},
	}
}

// Trigger is the channel to hand to RunnerConfig.Trigger.
func (w *Watcher) Trigger() <-chan struct{} {
	return w.trigger
}

// Watch registers every source directory and forwards debounced change
// notifications until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := w.newWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}

	w.logger.Info("watching source for changes", slog.String("source", w.root))

	return w.watchLoop(ctx, watcher)
}

// addTree adds a watch on dir and every directory beneath it. Directories
// that vanish mid-walk are skipped.
func (w *Watcher) addTree(watcher FsWatcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Debug("watch walk error", slog.String("path", path), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if rel, err := relPath(w.root, path); err == nil && w.filter.Excluded(rel, true) {
			return fs.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}

		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context, watcher FsWatcher) error {
	var (
		debounce  *time.Timer
		debounceC <-chan time.Time
	)

	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	errBackoff := watchErrInitBackoff

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			if !w.relevant(ev, watcher) {
				continue
			}

			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				debounce.Reset(w.debounce)
			}

			debounceC = debounce.C
			errBackoff = watchErrInitBackoff

		case watchErr, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error",
				slog.String("error", watchErr.Error()),
				slog.Duration("backoff", errBackoff),
			)

			if !sleepCtx(ctx, errBackoff) {
				return nil
			}

			errBackoff = min(errBackoff*watchErrBackoffMult, watchErrMaxBackoff)

		case <-debounceC:
			debounceC = nil
			w.fire()
		}
	}
}

// relevant filters out chmod-only and excluded events and registers watches
// on directories created after startup.
func (w *Watcher) relevant(ev fsnotify.Event, watcher FsWatcher) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}

	rel, err := relPath(w.root, ev.Name)
	if err != nil {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, statErr := os.Lstat(ev.Name); statErr == nil && info.IsDir() {
			if w.filter.Excluded(rel, true) {
				return false
			}

			if addErr := w.addTree(watcher, ev.Name); addErr != nil {
				w.logger.Warn("failed to watch new directory",
					slog.String("path", ev.Name), slog.String("error", addErr.Error()))
			}

			return true
		}
	}

	return !w.filter.Excluded(rel, false)
}

// fire sends a trigger unless one is already pending.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
