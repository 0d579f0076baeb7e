package recovery

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/dashboard"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// State is the boundary lifecycle.
type State int

const (
	// StateIdle: the subtree renders normally.
	StateIdle State = iota
	// StateErrored: a failure was caught and not yet recovered from.
	StateErrored
	// StateRecovering: a retry is executing.
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateErrored:
		return "errored"
	case StateRecovering:
		return "recovering"
	default:
		return "idle"
	}
}

// Strategy is the recovery policy applied to a caught failure.
type Strategy string

const (
	// FallbackToStatic renders static fallback content with a manual
	// retry affordance. The default.
	FallbackToStatic Strategy = "fallback_static"
	// RetryWithDelay schedules automatic re-renders up to MaxRetries.
	RetryWithDelay Strategy = "retry_with_delay"
	// DisableAnimations advises the host to stop animating entirely.
	// Advisory: enforcement belongs to the motion resolver's caller.
	DisableAnimations Strategy = "disable_animations"
	// ReduceComplexity advises the host to simplify animations.
	// Advisory, like DisableAnimations.
	ReduceComplexity Strategy = "reduce_complexity"
)

// Defaults for BoundaryConfig zero values.
const (
	DefaultRetryDelay = 2 * time.Second
	DefaultMaxRetries = 3
)

// RenderFunc renders the guarded subtree. An error (or panic, which the
// boundary converts to an error) marks the render as failed.
type RenderFunc func() error

// BoundaryConfig configures one error boundary.
type BoundaryConfig struct {
	// Name identifies the guarded subtree in errors and logs.
	Name string
	// Strategy selects the recovery policy; empty means
	// FallbackToStatic.
	Strategy Strategy
	// RetryDelay is the wait before an automatic retry.
	RetryDelay time.Duration
	// MaxRetries bounds automatic retries; exceeding it leaves the
	// boundary errored until Reset.
	MaxRetries int
	// OnError is invoked for every caught failure.
	OnError func(AnimationError)
	// Fallback renders the static fallback content. Nil uses a default
	// human-readable message.
	Fallback func(AnimationError) string
	// Log receives every caught failure; nil uses DefaultLog.
	Log *Log
	// Provider, when set, accumulates errors for tree-wide escalation.
	Provider *Provider
	// Dashboard, when set, snapshots a performance summary into each
	// recorded error.
	Dashboard *dashboard.Dashboard
}

// Boundary is the per-subtree catch point. It is transient relative to
// the process-wide Log: dispose it with its subtree.
type Boundary struct {
	mu       sync.Mutex
	cfg      BoundaryConfig
	state    State
	lastErr  *AnimationError
	attempts int
	render   RenderFunc
	timer    *time.Timer
	disposed bool
}

// NewBoundary creates a boundary, filling config zero values with the
// documented defaults.
func NewBoundary(cfg BoundaryConfig) *Boundary {
	if cfg.Strategy == "" {
		cfg.Strategy = FallbackToStatic
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Log == nil {
		cfg.Log = DefaultLog
	}
	return &Boundary{cfg: cfg}
}

// Guard renders the subtree through the boundary. Panics become errors;
// any failure is classified, recorded, and answered with the configured
// strategy. The failure is returned for the caller's information but
// must not be treated as fatal; the boundary has already handled it.
func (b *Boundary) Guard(render RenderFunc) error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return fmt.Errorf("boundary %q: disposed", b.cfg.Name)
	}
	b.render = render
	b.mu.Unlock()

	err := protect(render)
	if err == nil {
		b.mu.Lock()
		b.state = StateIdle
		b.attempts = 0
		b.lastErr = nil
		b.mu.Unlock()
		return nil
	}

	b.handle(err)
	return err
}

// protect runs a render converting panics into errors.
func protect(render RenderFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during animated render: %v", r)
		}
	}()
	return render()
}

// handle classifies and records a failure, then applies the strategy.
func (b *Boundary) handle(err error) {
	ae := AnimationError{
		Type:           Classify(err),
		Message:        err.Error(),
		ComponentStack: b.cfg.Name,
	}
	if b.cfg.Dashboard != nil {
		if s, ok := b.cfg.Dashboard.GetPerformanceSummary(); ok {
			ae.Metrics = &s
		}
	}
	ae = b.cfg.Log.Record(ae)

	if b.cfg.OnError != nil {
		b.notify(ae)
	}
	if b.cfg.Provider != nil {
		b.cfg.Provider.RecordError(ae)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.lastErr = &ae
	b.state = StateErrored

	switch b.cfg.Strategy {
	case RetryWithDelay:
		if b.attempts >= b.cfg.MaxRetries {
			logging.Get(logging.CategoryRecovery).Warn("max retries exceeded, boundary stays errored",
				zap.String("boundary", b.cfg.Name),
				zap.Int("attempts", b.attempts))
			return
		}
		logging.Get(logging.CategoryRecovery).Info("scheduling recovery attempt",
			zap.String("boundary", b.cfg.Name),
			zap.Duration("delay", b.cfg.RetryDelay),
			zap.Int("attempt", b.attempts+1))
		b.timer = time.AfterFunc(b.cfg.RetryDelay, b.attemptRecover)

	case DisableAnimations, ReduceComplexity:
		// Advisory strategies: surfaced via LastError/Provider, the
		// motion resolver's caller applies them.
		logging.Get(logging.CategoryRecovery).Info("advisory recovery strategy chosen",
			zap.String("boundary", b.cfg.Name),
			zap.String("strategy", string(b.cfg.Strategy)))

	default:
		// FallbackToStatic: fallback content is served until a manual
		// Retry or Reset.
	}
}

// notify invokes the OnError callback; a panicking callback must not
// break recovery.
func (b *Boundary) notify(ae AnimationError) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryRecovery).Warn("onError callback panicked", zap.Any("panic", r))
		}
	}()
	b.cfg.OnError(ae)
}

// attemptRecover fires on the retry timer: re-render the subtree,
// returning to idle on success and re-entering handle on failure.
func (b *Boundary) attemptRecover() {
	b.mu.Lock()
	if b.disposed || b.state != StateErrored || b.render == nil {
		b.mu.Unlock()
		return
	}
	b.state = StateRecovering
	b.attempts++
	render := b.render
	b.mu.Unlock()

	if err := protect(render); err != nil {
		b.handle(err)
		return
	}

	b.mu.Lock()
	b.state = StateIdle
	b.lastErr = nil
	b.attempts = 0
	b.mu.Unlock()
	logging.Get(logging.CategoryRecovery).Info("boundary recovered", zap.String("boundary", b.cfg.Name))
}

// Retry is the manual retry affordance surfaced by the fallback UI. It
// re-renders immediately regardless of attempt budget.
func (b *Boundary) Retry() error {
	b.mu.Lock()
	if b.disposed || b.render == nil {
		b.mu.Unlock()
		return nil
	}
	b.stopTimerLocked()
	b.state = StateRecovering
	render := b.render
	b.mu.Unlock()

	if err := protect(render); err != nil {
		b.handle(err)
		return err
	}

	b.mu.Lock()
	b.state = StateIdle
	b.lastErr = nil
	b.attempts = 0
	b.mu.Unlock()
	return nil
}

// Fallback returns the static content to render while the boundary is
// errored. ok is false when the subtree should render normally.
func (b *Boundary) Fallback() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateErrored || b.lastErr == nil {
		return "", false
	}
	if b.cfg.Fallback != nil {
		return b.cfg.Fallback(*b.lastErr), true
	}
	return fmt.Sprintf("Animation unavailable: %s. Retry to restore motion.", b.lastErr.Message), true
}

// State returns the current boundary state.
func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// LastError returns a copy of the most recent caught failure, if any.
func (b *Boundary) LastError() (AnimationError, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastErr == nil {
		return AnimationError{}, false
	}
	return *b.lastErr, true
}

// Attempts returns how many automatic retries have run since the last
// successful render.
func (b *Boundary) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Reset externally clears the boundary back to idle, cancelling any
// pending retry. The path out of a permanently errored boundary.
func (b *Boundary) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.state = StateIdle
	b.lastErr = nil
	b.attempts = 0
}

// Dispose cancels any pending retry and rejects future renders.
// Idempotent; call on subtree unmount.
func (b *Boundary) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	b.stopTimerLocked()
}

func (b *Boundary) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
