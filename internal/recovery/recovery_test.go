package recovery

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want ErrorType
	}{
		{errors.New("animation engine failed to initialize"), EngineLoadFailure},
		{errors.New("dynamic import timed out"), EngineLoadFailure},
		{errors.New("memory usage exceeded budget"), MemoryLeak},
		{errors.New("detected heap leak in scroll handler"), MemoryLeak},
		{errors.New("frame rate collapsed below target"), PerformanceDegradation},
		{errors.New("render too slow: performance budget breached"), PerformanceDegradation},
		{errors.New("IntersectionObserver is not supported in this browser"), BrowserCompatibility},
		{errors.New("requestAnimationFrame undefined is not a function"), BrowserCompatibility},
		{errors.New("nil pointer dereference in transition"), RuntimeError},
		{nil, RuntimeError},
	} {
		name := "nil"
		if tc.err != nil {
			name = tc.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestLog_BoundedHistory(t *testing.T) {
	l := NewLog(WithCap(3))

	for i := 0; i < 5; i++ {
		l.Record(AnimationError{Type: RuntimeError, Message: fmt.Sprintf("err %d", i)})
	}

	entries := l.Recent()
	require.Len(t, entries, 3)
	// Oldest trimmed first.
	assert.Equal(t, "err 2", entries[0].Message)
	assert.Equal(t, "err 4", entries[2].Message)

	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}

	l.Clear()
	assert.Zero(t, l.Len())
}

func TestLog_ReporterFailuresAreSwallowed(t *testing.T) {
	var reported int32
	l := NewLog(WithReporter(ReporterFunc(func(e AnimationError) error {
		switch atomic.AddInt32(&reported, 1) {
		case 1:
			return errors.New("analytics endpoint down")
		case 2:
			panic("reporter exploded")
		}
		return nil
	})))

	// Neither a reporter error nor a reporter panic may escape Record.
	l.Record(AnimationError{Type: RuntimeError, Message: "first"})
	l.Record(AnimationError{Type: RuntimeError, Message: "second"})
	l.Record(AnimationError{Type: RuntimeError, Message: "third"})

	assert.Equal(t, int32(3), atomic.LoadInt32(&reported))
	assert.Equal(t, 3, l.Len())
}

func TestBoundary_SuccessfulRenderStaysIdle(t *testing.T) {
	b := NewBoundary(BoundaryConfig{Name: "hero", Log: NewLog()})
	defer b.Dispose()

	require.NoError(t, b.Guard(func() error { return nil }))
	assert.Equal(t, StateIdle, b.State())
	_, ok := b.Fallback()
	assert.False(t, ok)
}

func TestBoundary_FallbackToStatic(t *testing.T) {
	log := NewLog()
	var seen []AnimationError
	b := NewBoundary(BoundaryConfig{
		Name:    "gallery",
		Log:     log,
		OnError: func(e AnimationError) { seen = append(seen, e) },
	})
	defer b.Dispose()

	err := b.Guard(func() error { return errors.New("engine chunk failed to load") })
	require.Error(t, err)

	assert.Equal(t, StateErrored, b.State())
	content, ok := b.Fallback()
	require.True(t, ok)
	assert.Contains(t, content, "engine chunk failed to load")

	require.Len(t, seen, 1)
	assert.Equal(t, EngineLoadFailure, seen[0].Type)
	assert.Equal(t, "gallery", seen[0].ComponentStack)
	assert.Equal(t, 1, log.Len())
}

func TestBoundary_PanicBecomesError(t *testing.T) {
	b := NewBoundary(BoundaryConfig{Name: "cards", Log: NewLog()})
	defer b.Dispose()

	err := b.Guard(func() error { panic("boom") })
	require.Error(t, err)
	assert.Equal(t, StateErrored, b.State())

	last, ok := b.LastError()
	require.True(t, ok)
	assert.Equal(t, RuntimeError, last.Type)
	assert.Contains(t, last.Message, "boom")
}

func TestBoundary_RetryWithDelayRecovers(t *testing.T) {
	var failures int32 = 1
	b := NewBoundary(BoundaryConfig{
		Name:       "reveal",
		Strategy:   RetryWithDelay,
		RetryDelay: 20 * time.Millisecond,
		MaxRetries: 1,
		Log:        NewLog(),
	})
	defer b.Dispose()

	render := func() error {
		if atomic.AddInt32(&failures, -1) >= 0 {
			return errors.New("transient glitch")
		}
		return nil
	}

	require.Error(t, b.Guard(render))
	assert.Equal(t, StateErrored, b.State())

	// The fault is "fixed" (failures exhausted); the scheduled retry
	// re-renders and the boundary returns to idle on its own.
	require.Eventually(t, func() bool {
		return b.State() == StateIdle
	}, time.Second, 5*time.Millisecond)

	_, ok := b.LastError()
	assert.False(t, ok)
}

func TestBoundary_MaxRetriesExhaustedStaysErrored(t *testing.T) {
	var attempts int32
	b := NewBoundary(BoundaryConfig{
		Name:       "stubborn",
		Strategy:   RetryWithDelay,
		RetryDelay: 10 * time.Millisecond,
		MaxRetries: 2,
		Log:        NewLog(),
	})
	defer b.Dispose()

	render := func() error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("still broken")
	}

	require.Error(t, b.Guard(render))

	// Initial render + 2 automatic retries, then permanently errored.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 3 && b.State() == StateErrored
	}, time.Second, 5*time.Millisecond)

	// No further attempts happen.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, 2, b.Attempts())

	// External reset is the only path out.
	b.Reset()
	assert.Equal(t, StateIdle, b.State())
	assert.Zero(t, b.Attempts())
}

func TestBoundary_ManualRetry(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	b := NewBoundary(BoundaryConfig{Name: "manual", Log: NewLog()})
	defer b.Dispose()

	render := func() error {
		if broken.Load() {
			return errors.New("render failed")
		}
		return nil
	}

	require.Error(t, b.Guard(render))
	require.Error(t, b.Retry())
	assert.Equal(t, StateErrored, b.State())

	broken.Store(false)
	require.NoError(t, b.Retry())
	assert.Equal(t, StateIdle, b.State())
}

func TestBoundary_AdvisoryStrategies(t *testing.T) {
	for _, strategy := range []Strategy{DisableAnimations, ReduceComplexity} {
		b := NewBoundary(BoundaryConfig{Name: "advisory", Strategy: strategy, Log: NewLog()})

		require.Error(t, b.Guard(func() error { return errors.New("broken") }))
		// Advisory strategies do not retry; the boundary just surfaces
		// the errored state for the host to act on.
		assert.Equal(t, StateErrored, b.State())
		b.Dispose()
	}
}

func TestBoundary_DisposeCancelsPendingRetry(t *testing.T) {
	var attempts int32
	b := NewBoundary(BoundaryConfig{
		Name:       "unmounted",
		Strategy:   RetryWithDelay,
		RetryDelay: 30 * time.Millisecond,
		Log:        NewLog(),
	})

	require.Error(t, b.Guard(func() error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("fail")
	}))
	b.Dispose()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "retry must not fire after dispose")
}

func TestBoundary_OnErrorPanicIsContained(t *testing.T) {
	b := NewBoundary(BoundaryConfig{
		Name:    "cb",
		Log:     NewLog(),
		OnError: func(AnimationError) { panic("callback bug") },
	})
	defer b.Dispose()

	require.NotPanics(t, func() {
		_ = b.Guard(func() error { return errors.New("x") })
	})
	assert.Equal(t, StateErrored, b.State())
}

func TestProvider_Escalation(t *testing.T) {
	p := NewProvider()

	_, ok := p.Suggestion()
	assert.False(t, ok, "healthy tree has no suggestion")

	p.RecordError(AnimationError{Type: RuntimeError})
	_, ok = p.Suggestion()
	assert.False(t, ok)

	p.RecordError(AnimationError{Type: EngineLoadFailure})
	s, ok := p.Suggestion()
	require.True(t, ok)
	assert.Equal(t, ReduceComplexity, s)

	p.RecordError(AnimationError{Type: RuntimeError})
	s, _ = p.Suggestion()
	assert.Equal(t, DisableAnimations, s)

	assert.Equal(t, 3, p.ErrorCount())
	assert.Equal(t, 2, p.CountByType(RuntimeError))

	p.Reset()
	assert.Zero(t, p.ErrorCount())
	_, ok = p.Suggestion()
	assert.False(t, ok)
}

func TestBoundary_FeedsProvider(t *testing.T) {
	p := NewProvider()
	log := NewLog()

	for i := 0; i < 3; i++ {
		b := NewBoundary(BoundaryConfig{
			Name:     fmt.Sprintf("region-%d", i),
			Log:      log,
			Provider: p,
		})
		_ = b.Guard(func() error { return errors.New("broken region") })
		b.Dispose()
	}

	s, ok := p.Suggestion()
	require.True(t, ok)
	assert.Equal(t, DisableAnimations, s)
	assert.Equal(t, 3, log.Len())
}
