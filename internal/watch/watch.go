// Package watch feeds new video files of a directory to a handler, using
// fsnotify events with a periodic rescan as fallback.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/reels/internal/audio"
	"github.com/mgpai22/reels/internal/logging"
)

// Handler processes one settled file. Errors are logged and do not stop the
// watcher.
type Handler func(ctx context.Context, path string) error

type Options struct {
	PollInterval time.Duration
	// a file is handed over once no event touched it for this long
	SettleDelay time.Duration
	// handle files already present when Run starts
	ProcessExisting bool
	// rescan only, e.g. on network mounts without inotify support
	DisableNotify bool
	Match         func(path string) bool
}

type Watcher struct {
	dir    string
	handle Handler
	opts   Options
	logger *logging.Logger

	seen    map[string]bool
	pending map[string]time.Time
}

func New(dir string, handle Handler, opts Options, logger *logging.Logger) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Match == nil {
		opts.Match = audio.IsVideoFile
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		dir:     dir,
		handle:  handle,
		opts:    opts,
		logger:  logger.With("dir", dir),
		seen:    make(map[string]bool),
		pending: make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", w.dir)
	}

	existing, err := w.scan()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, path := range existing {
		if w.opts.ProcessExisting {
			w.pending[path] = now
		} else {
			w.seen[path] = true
		}
	}

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if !w.opts.DisableNotify {
		if fsw, err := w.notifier(); err != nil {
			w.logger.Warnw("fsnotify not available, falling back to polling", "error", err)
		} else {
			defer fsw.Close()
			events, errs = fsw.Events, fsw.Errors
		}
	}
	w.logger.Infow("Watching for videos", "notify", events != nil, "poll", w.opts.PollInterval)

	pollTicker := time.NewTicker(w.opts.PollInterval)
	defer pollTicker.Stop()
	settleTicker := time.NewTicker(max(w.opts.SettleDelay/2, 50*time.Millisecond))
	defer settleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				w.logger.Warnw("fsnotify watcher closed, switching to polling")
				events, errs = nil, nil
				continue
			}
			w.onEvent(event)

		case err, ok := <-errs:
			if !ok {
				events, errs = nil, nil
				continue
			}
			w.logger.Warnw("File watcher error", "error", err)

		case <-pollTicker.C:
			found, err := w.scan()
			if err != nil {
				w.logger.Warnw("Directory scan failed", "error", err)
				continue
			}
			for _, path := range found {
				if _, queued := w.pending[path]; !queued && !w.seen[path] {
					w.pending[path] = time.Now()
				}
			}

		case <-settleTicker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) notifier() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

func (w *Watcher) onEvent(event fsnotify.Event) {
	path := event.Name
	if !w.opts.Match(path) || w.seen[path] {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		// every write pushes the deadline back
		w.pending[path] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, path)
	}
}

// hands every settled file to the handler, oldest first
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string
	for path, touched := range w.pending {
		if now.Sub(touched) >= w.opts.SettleDelay {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return w.pending[ready[i]].Before(w.pending[ready[j]]) ||
			(w.pending[ready[i]].Equal(w.pending[ready[j]]) && ready[i] < ready[j])
	})

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		delete(w.pending, path)
		w.seen[path] = true

		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		w.logger.Infow("New video", "path", path)
		if err := w.handle(ctx, path); err != nil {
			w.logger.Errorw("Handler failed", "path", path, "error", err)
		}
	}
}

func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", w.dir, err)
	}
	var files []string
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && w.opts.Match(path) {
			files = append(files, path)
		}
	}
	return files, nil
}
