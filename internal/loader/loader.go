// Package loader gates animation module loading on element visibility.
// Each animation id moves through a small state machine (unloaded,
// loading, loaded, failed); concurrent load requests for one id are
// collapsed into a single underlying attempt, and a loaded id never
// loads again.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// LoadState tracks one animation id through its lifecycle.
type LoadState int

const (
	StateUnloaded LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// ElementRef identifies a host view-layer element. The loader only uses
// it as a map key; values must be comparable.
type ElementRef = any

// LoadFunc performs the actual animation module load for one id.
type LoadFunc func(ctx context.Context, id string) error

// ErrDisposed is returned by load requests after Dispose.
var ErrDisposed = errors.New("loader: disposed")

// Loader observes elements for visibility and lazily loads the animation
// modules they reference.
type Loader struct {
	mu       sync.Mutex
	loadFn   LoadFunc
	timeout  time.Duration
	group    singleflight.Group
	states   map[string]LoadState
	failures map[string]error
	observed map[ElementRef]string
	// triggered marks ids whose visibility-driven load already fired, so
	// later elements sharing the id do not start duplicate work.
	triggered map[string]bool
	disposed  bool
	log       *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds each underlying load attempt. Zero disables the
// bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithLogger overrides the default category logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// New creates a Loader around the given load function.
func New(loadFn LoadFunc, opts ...Option) *Loader {
	l := &Loader{
		loadFn:    loadFn,
		states:    make(map[string]LoadState),
		failures:  make(map[string]error),
		observed:  make(map[ElementRef]string),
		triggered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// logger resolves the sink per call so a logger installed after
// construction is picked up; WithLogger pins one instead.
func (l *Loader) logger() *zap.Logger {
	if l.log != nil {
		return l.log
	}
	return logging.Get(logging.CategoryLoader)
}

// ObserveElement begins visibility observation of el for the given
// animation id. The first NotifyVisible for el triggers the load.
func (l *Loader) ObserveElement(el ElementRef, animationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.observed[el] = animationID
}

// UnobserveElement stops observation of el. An in-flight load triggered
// by this element is not cancelled.
func (l *Loader) UnobserveElement(el ElementRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.observed, el)
}

// NotifyVisible is the inbound visibility signal. On the first visible
// transition of any element observing an id, the load for that id is
// triggered exactly once. The load runs synchronously on the caller's
// goroutine; failures are recorded in the id's state and logged, not
// returned, matching the fire-and-forget nature of visibility callbacks.
func (l *Loader) NotifyVisible(el ElementRef) {
	l.mu.Lock()
	id, ok := l.observed[el]
	if !ok || l.disposed || l.triggered[id] {
		l.mu.Unlock()
		return
	}
	l.triggered[id] = true
	l.mu.Unlock()

	if err := l.LoadAnimation(context.Background(), id); err != nil {
		l.logger().Warn("visibility-triggered load failed",
			zap.String("animation_id", id), zap.Error(err))
	}
}

// LoadAnimation loads the module for id. Concurrent callers for the same
// id share one underlying attempt and receive the same result. A loaded
// id returns nil immediately; a failed id returns its recorded failure
// until ResetFailed.
func (l *Loader) LoadAnimation(ctx context.Context, id string) error {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return ErrDisposed
	}
	switch l.states[id] {
	case StateLoaded:
		l.mu.Unlock()
		return nil
	case StateFailed:
		err := l.failures[id]
		l.mu.Unlock()
		return err
	}
	l.states[id] = StateLoading
	l.mu.Unlock()

	_, err, _ := l.group.Do(id, func() (any, error) {
		return nil, l.attempt(ctx, id)
	})
	return err
}

// attempt runs the underlying load once and records the outcome.
func (l *Loader) attempt(ctx context.Context, id string) error {
	// A caller that raced past the state check may enter a fresh flight
	// after the previous one settled; honor the sticky outcome instead
	// of re-running the load.
	l.mu.Lock()
	switch l.states[id] {
	case StateLoaded:
		l.mu.Unlock()
		return nil
	case StateFailed:
		err := l.failures[id]
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	err := l.loadFn(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		wrapped := fmt.Errorf("load animation %q: %w", id, err)
		l.states[id] = StateFailed
		l.failures[id] = wrapped
		l.logger().Warn("animation load failed",
			zap.String("animation_id", id),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return wrapped
	}
	l.states[id] = StateLoaded
	delete(l.failures, id)
	l.logger().Debug("animation loaded",
		zap.String("animation_id", id),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// PreloadAnimation eagerly warms up an animation module without any
// associated element. Identical semantics to LoadAnimation.
func (l *Loader) PreloadAnimation(ctx context.Context, id string) error {
	return l.LoadAnimation(ctx, id)
}

// IsLoaded reports whether id has finished loading successfully.
func (l *Loader) IsLoaded(id string) bool {
	return l.State(id) == StateLoaded
}

// State returns the current load state for id.
func (l *Loader) State(id string) LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[id]
}

// ResetFailed clears a failed id back to unloaded so it may be retried,
// including by a fresh visibility trigger. No-op for other states.
func (l *Loader) ResetFailed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[id] != StateFailed {
		return
	}
	delete(l.states, id)
	delete(l.failures, id)
	delete(l.triggered, id)
}

// Dispose stops all observation and rejects future load requests.
// In-flight loads run to completion. Idempotent.
func (l *Loader) Dispose() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.disposed = true
	l.observed = make(map[ElementRef]string)
}
