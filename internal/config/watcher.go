package config

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// ErrWatcherStopped is returned by Start on a watcher that was already
// stopped.
var ErrWatcherStopped = errors.New("config: watcher stopped")

// Watcher hot-reloads a config file. It watches the containing directory
// (editors replace files rather than write in place), debounces rapid
// saves, and hands each successfully parsed config to the subscriber.
// A file that fails to parse is reported in stats and skipped; the last
// good config stays active.
//
// A Watcher is single-use: Stop releases the underlying file watcher,
// and a stopped Watcher cannot be restarted.
type Watcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	path      string
	onReload  func(Config)
	pending   bool
	lastEvent time.Time
	debounce  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
	stopped   bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for diagnostics.
type WatcherStats struct {
	Reloads       int
	ParseFailures int
	Errors        int
	LastReload    time.Time
}

// NewWatcher creates a watcher for the given config file path. onReload
// is invoked from the watcher goroutine for every valid reload.
func NewWatcher(path string, onReload func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		onReload: onReload,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in its own
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrWatcherStopped
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	log := logging.Get(logging.CategoryConfig)
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	log.Info("watching config file", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop halts the watch loop, waits for it to exit, and closes the
// underlying file watcher. Safe to call at any point and any number of
// times, including before Start or after a failed Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryConfig).Error("closing watcher", zap.Error(err))
	}
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	log := logging.Get(logging.CategoryConfig)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-tick.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

// flushPending reloads once the debounce window after the last event has
// passed, so a burst of editor writes produces one reload.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	log := logging.Get(logging.CategoryConfig)
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn("config reload skipped", zap.Error(err))
		w.mu.Lock()
		w.stats.ParseFailures++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.stats.LastReload = time.Now()
	cb := w.onReload
	w.mu.Unlock()

	log.Info("config reloaded", zap.String("path", w.path))
	logging.Reconfigure(cfg.Logging)
	if cb != nil {
		cb(cfg)
	}
}
