// Package recovery catches animation failures, classifies them, records
// them to a process-wide bounded history, and drives the configured
// recovery strategy: fall back to static content, retry after a delay,
// or advise the host to reduce animation complexity or disable motion
// outright. A failure never propagates past a boundary.
package recovery

import (
	"strings"
	"time"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/dashboard"
)

// ErrorType is the failure taxonomy for animation errors.
type ErrorType string

const (
	// EngineLoadFailure: the animation engine failed to initialize.
	EngineLoadFailure ErrorType = "engine_load_failure"
	// RuntimeError: an exception during animated rendering. Default
	// classification when no keyword matches.
	RuntimeError ErrorType = "runtime_error"
	// PerformanceDegradation: frame rate or render time breached a
	// threshold.
	PerformanceDegradation ErrorType = "performance_degradation"
	// MemoryLeak: observed memory usage breached a threshold.
	MemoryLeak ErrorType = "memory_leak"
	// BrowserCompatibility: a failure attributable to missing platform
	// support.
	BrowserCompatibility ErrorType = "browser_compatibility"
)

// classificationHints maps message keywords to error types. Checked in
// order; first match wins.
var classificationHints = []struct {
	keywords []string
	errType  ErrorType
}{
	{[]string{"engine", "load", "import", "chunk", "module not found"}, EngineLoadFailure},
	{[]string{"memory", "leak", "heap", "allocation"}, MemoryLeak},
	{[]string{"performance", "frame rate", "fps", "slow render", "janky"}, PerformanceDegradation},
	{[]string{"browser", "not supported", "unsupported", "undefined is not a function", "compatibility"}, BrowserCompatibility},
}

// Classify inspects an error message for domain keywords and maps it to
// the taxonomy, defaulting to RuntimeError.
func Classify(err error) ErrorType {
	if err == nil {
		return RuntimeError
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range classificationHints {
		for _, kw := range hint.keywords {
			if strings.Contains(msg, kw) {
				return hint.errType
			}
		}
	}
	return RuntimeError
}

// AnimationError is one classified animation failure.
type AnimationError struct {
	ID             string             `json:"id"`
	Type           ErrorType          `json:"type"`
	Message        string             `json:"message"`
	ComponentStack string             `json:"component_stack,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Metrics        *dashboard.Summary `json:"metrics,omitempty"`
}

func (e AnimationError) Error() string {
	return string(e.Type) + ": " + e.Message
}
