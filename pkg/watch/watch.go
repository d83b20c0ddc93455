// Package watch re-runs a callback when files below a directory change.
//
// Events are debounced: a burst of writes (an editor save, a bundler
// emitting many chunks) results in one callback with every changed path.
// Directories created while watching are picked up automatically.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 150 * time.Millisecond

// ErrClosed is returned by operations on a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before changes are reported
	// (default DefaultDebounce).
	Debounce time.Duration

	// IncludeHidden reports changes to dot files and descends into dot
	// directories. They are skipped by default.
	IncludeHidden bool

	// Filter, if set, drops paths for which it returns false. Directories
	// are always watched.
	Filter func(path string) bool

	Logger *log.Logger
}

// OnChange receives a sorted, de-duplicated batch of changed paths.
type OnChange func(ctx context.Context, paths []string) error

// Watcher watches a directory tree.
type Watcher struct {
	root   string
	opts   Options
	logger *log.Logger
	fsw    *fsnotify.Watcher

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New watches root and all its subdirectories.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(abs + " is not a directory")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:   abs,
		opts:   opts,
		logger: opts.Logger,
		fsw:    fsw,
		paths:  make(map[string]bool),
	}
	if _, err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched root.
func (w *Watcher) Root() string { return w.root }

// WatchedPaths returns the watched directories in lexical order.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Run delivers debounced batches to onChange until ctx is canceled or the
// watcher is closed. Errors from onChange are logged and do not stop Run.
func (w *Watcher) Run(ctx context.Context, onChange OnChange) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrClosed
			}
			changed := w.handle(ev)
			if len(changed) == 0 {
				continue
			}
			for _, p := range changed {
				pending[p] = true
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrClosed
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)

			w.logger.Debug("changes detected", "count", len(batch))
			if err := onChange(ctx, batch); err != nil {
				w.logger.Warn("change handler failed", "error", err)
			}
		}
	}
}

// Close stops watching. A running Run returns ErrClosed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fsw.Close()
}

// handle returns the reportable paths for one event.
func (w *Watcher) handle(ev fsnotify.Event) []string {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return nil
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			files, err := w.addTree(ev.Name)
			if err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return files
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.paths, ev.Name)
		w.mu.Unlock()
	}

	if w.opts.Filter != nil && !w.opts.Filter(ev.Name) {
		return nil
	}
	return []string{ev.Name}
}

// addTree watches dir and its subdirectories and returns the files already
// present, so files written before the watch was added are not missed.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p != dir && w.ignored(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if w.opts.Filter == nil || w.opts.Filter(p) {
				files = append(files, p)
			}
			return nil
		}
		return w.add(p)
	})
	return files, err
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.paths[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.paths[dir] = true
	return nil
}

func (w *Watcher) ignored(path string) bool {
	if w.opts.IncludeHidden {
		return false
	}
	base := filepath.Base(path)
	return len(base) > 0 && base[0] == '.'
}
