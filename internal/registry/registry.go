// Package registry bounds the number of live scroll-linked animation
// handles. Scroll surfaces register a cleanup callback per animation;
// when the cap is exceeded the least-recently-seen handle is evicted and
// its cleanup runs, so a page that registers handles faster than it
// unregisters them cannot grow without bound.
//
// The invariant the whole package exists for: every cleanup callback
// registered runs exactly once over the manager's lifetime, whether via
// unregister, eviction, replacement, or disposal.
package registry

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// ElementRef identifies a host view-layer element. Back-reference only;
// the registry never dereferences it.
type ElementRef = any

// handle is one registered scroll animation. Owned exclusively by the
// manager; callers interact by id.
type handle struct {
	id       string
	el       ElementRef
	cleanup  func()
	lastSeen time.Time
	elem     *list.Element
}

// Stats is a snapshot of manager activity.
type Stats struct {
	Active      int
	Evictions   int
	Registered  int
	CleanupRuns int
}

// Manager is the bounded handle registry.
type Manager struct {
	mu        sync.Mutex
	maxActive int
	handles   map[string]*handle
	// order is the recency list: front = most recently seen, back =
	// eviction candidate.
	order    *list.List
	disposed bool
	now      func() time.Time
	log      *zap.Logger

	evictions   int
	registered  int
	cleanupRuns int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, for deterministic recency tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger overrides the default category logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// New creates a manager holding at most maxActive handles. Non-positive
// caps are coerced to 1 so the eviction invariant always holds.
func New(maxActive int, opts ...Option) *Manager {
	if maxActive <= 0 {
		maxActive = 1
	}
	m := &Manager{
		maxActive: maxActive,
		handles:   make(map[string]*handle),
		order:     list.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterAnimation inserts a handle. A duplicate id replaces the
// existing handle, running the old cleanup first. When the registry is
// full, the least-recently-seen handle is evicted (its cleanup runs)
// before the new handle is inserted. Registering on a disposed manager
// runs the cleanup immediately so it is still invoked exactly once.
func (m *Manager) RegisterAnimation(id string, el ElementRef, cleanup func()) {
	if cleanup == nil {
		cleanup = func() {}
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		m.runCleanup(cleanup)
		return
	}
	m.registered++
	m.mu.Unlock()

	// Cleanups run outside the lock and may re-enter the manager, so
	// every pass re-checks disposal, the duplicate id, and occupancy
	// from scratch: a replacement cleanup may have registered the
	// incoming id again, and an eviction cleanup may have filled the
	// slot that was just freed.
	for {
		m.mu.Lock()
		if m.disposed {
			m.mu.Unlock()
			m.runCleanup(cleanup)
			return
		}
		if old, ok := m.handles[id]; ok {
			m.detachLocked(old)
			m.mu.Unlock()
			m.logger().Debug("replacing scroll animation handle", zap.String("id", id))
			m.runCleanup(old.cleanup)
			continue
		}
		if len(m.handles) < m.maxActive {
			h := &handle{id: id, el: el, cleanup: cleanup, lastSeen: m.now()}
			h.elem = m.order.PushFront(h)
			m.handles[id] = h
			m.mu.Unlock()
			return
		}
		victim := m.order.Back().Value.(*handle)
		m.detachLocked(victim)
		m.evictions++
		m.mu.Unlock()

		m.logger().Debug("evicting least-recently-seen handle",
			zap.String("evicted", victim.id), zap.String("incoming", id))
		m.runCleanup(victim.cleanup)
	}
}

// UnregisterAnimation removes a handle and runs its cleanup. Unknown ids
// are a silent no-op.
func (m *Manager) UnregisterAnimation(id string) {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		m.detachLocked(h)
	}
	m.mu.Unlock()

	if ok {
		m.runCleanup(h.cleanup)
	}
}

// UpdateLastSeen refreshes recency for eviction ordering. Unknown ids
// are a silent no-op.
func (m *Manager) UpdateLastSeen(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[id]
	if !ok {
		return
	}
	h.lastSeen = m.now()
	m.order.MoveToFront(h.elem)
}

// ActiveCount returns the number of live handles. Never exceeds the cap.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// EvictionCount returns how many handles were evicted for capacity.
func (m *Manager) EvictionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictions
}

// GetStats returns a snapshot of manager activity.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Active:      len(m.handles),
		Evictions:   m.evictions,
		Registered:  m.registered,
		CleanupRuns: m.cleanupRuns,
	}
}

// Dispose evicts every remaining handle and runs each cleanup. After
// disposal the manager accepts no handles: a late registration has its
// cleanup run immediately. Idempotent.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	remaining := make([]*handle, 0, len(m.handles))
	for e := m.order.Back(); e != nil; e = e.Prev() {
		remaining = append(remaining, e.Value.(*handle))
	}
	m.handles = make(map[string]*handle)
	m.order.Init()
	m.mu.Unlock()

	m.logger().Debug("disposing scroll animation registry",
		zap.Int("remaining", len(remaining)))
	for _, h := range remaining {
		m.runCleanup(h.cleanup)
	}
}

// logger resolves the sink per call so a logger installed after
// construction is picked up; WithLogger pins one instead.
func (m *Manager) logger() *zap.Logger {
	if m.log != nil {
		return m.log
	}
	return logging.Get(logging.CategoryRegistry)
}

// detachLocked removes a handle from both indexes. Caller holds the lock
// and is responsible for running the cleanup afterwards.
func (m *Manager) detachLocked(h *handle) {
	delete(m.handles, h.id)
	m.order.Remove(h.elem)
}

// runCleanup invokes a cleanup callback outside the lock, shielding the
// manager from panics so one broken callback cannot strand the rest.
func (m *Manager) runCleanup(cleanup func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger().Error("scroll animation cleanup panicked", zap.Any("panic", r))
		}
	}()
	m.mu.Lock()
	m.cleanupRuns++
	m.mu.Unlock()
	cleanup()
}
