package recovery

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// DefaultLogCap bounds the process-wide error history; the oldest entry
// is trimmed beyond it.
const DefaultLogCap = 50

// Reporter is a pluggable external error sink (analytics, crash
// reporting). Implementations may fail; the log swallows reporter errors
// and panics so reporting can never take the process down with it.
type Reporter interface {
	Report(e AnimationError) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(e AnimationError) error

func (f ReporterFunc) Report(e AnimationError) error { return f(e) }

// Log is the process-wide bounded animation error history. Boundaries
// are transient per subtree; the log outlives them all.
type Log struct {
	mu       sync.Mutex
	cap      int
	entries  []AnimationError
	reporter Reporter
	now      func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithCap overrides the history bound.
func WithCap(n int) LogOption {
	return func(l *Log) {
		if n > 0 {
			l.cap = n
		}
	}
}

// WithReporter installs the external error sink.
func WithReporter(r Reporter) LogOption {
	return func(l *Log) { l.reporter = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

// NewLog creates an error log with the default cap.
func NewLog(opts ...LogOption) *Log {
	l := &Log{
		cap: DefaultLogCap,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultLog is the process-wide instance boundaries record to unless
// configured otherwise.
var DefaultLog = NewLog()

// Record appends an error to the history, assigning an id and timestamp
// when absent, trims beyond the cap, and forwards to the reporter.
// Returns the stored entry.
func (l *Log) Record(e AnimationError) AnimationError {
	l.mu.Lock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.cap; over > 0 {
		l.entries = l.entries[over:]
	}
	reporter := l.reporter
	l.mu.Unlock()

	logging.Get(logging.CategoryRecovery).Error("animation error recorded",
		zap.String("error_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("message", e.Message))

	if reporter != nil {
		l.report(reporter, e)
	}
	return e
}

// report delivers to the sink, swallowing its errors and panics.
func (l *Log) report(r Reporter, e AnimationError) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Get(logging.CategoryRecovery).Warn("error reporter panicked", zap.Any("panic", rec))
		}
	}()
	if err := r.Report(e); err != nil {
		logging.Get(logging.CategoryRecovery).Warn("error reporter failed", zap.Error(err))
	}
}

// Recent returns the stored history, oldest first.
func (l *Log) Recent() []AnimationError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AnimationError, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the history.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
