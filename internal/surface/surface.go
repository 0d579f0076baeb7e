// Package surface wires the resilience layer together for a host view
// layer. A Manager owns the capability profile, the lazy loader, the
// bounded scroll registry, the performance dashboard, and the tree-wide
// error escalation; each animated UI region mounts through it and gets
// back a Region carrying an error boundary and a resolved motion config.
//
// The Manager is also where advisory recovery strategies become real:
// when accumulated errors suggest reducing complexity or disabling
// animations, resolution of every subsequent config honors that.
package surface

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/config"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/dashboard"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/loader"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/motion"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/platform"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/recovery"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/registry"
)

// Preferences are the host-supplied accessibility and performance
// signals. They may change at runtime (a user toggles reduced motion).
type Preferences struct {
	ReducedMotion bool
	ScreenReader  bool
	Mode          motion.Mode
}

// Manager is the process-wide coordination point for animated surfaces.
type Manager struct {
	mu    sync.Mutex
	prefs Preferences

	cfg      config.Config
	detector *platform.Detector
	loader   *loader.Loader
	registry *registry.Manager
	board    *dashboard.Dashboard
	errLog   *recovery.Log
	provider *recovery.Provider
	regions  map[string]*Region
	disposed bool
}

// NewManager builds the full stack from one config. loadFn performs the
// actual animation module loads for the host platform.
func NewManager(cfg config.Config, env platform.Environment, loadFn loader.LoadFunc) *Manager {
	m := &Manager{
		cfg:      cfg,
		prefs:    Preferences{Mode: motion.ModeHigh},
		detector: platform.NewDetector(env),
		loader:   loader.New(loadFn, loader.WithTimeout(cfg.Loader.LoadTimeout.Std())),
		registry: registry.New(cfg.Registry.MaxActive),
		board: dashboard.New(dashboard.Thresholds{
			LowFrameRate: cfg.Dashboard.LowFrameRate,
			MemoryMB:     cfg.Dashboard.MemoryThresholdMB,
			SlowRender:   cfg.Dashboard.SlowRender.Std(),
			MetricCap:    cfg.Dashboard.MetricCap,
		}),
		errLog:   recovery.NewLog(recovery.WithCap(cfg.Recovery.ErrorLogCap)),
		provider: recovery.NewProvider(),
		regions:  make(map[string]*Region),
	}
	return m
}

// SetPreferences updates the accessibility and performance signals used
// by every subsequent resolution.
func (m *Manager) SetPreferences(p Preferences) {
	if p.Mode == "" {
		p.Mode = motion.ModeHigh
	}
	m.mu.Lock()
	m.prefs = p
	m.mu.Unlock()
}

// Profile returns the cached capability profile.
func (m *Manager) Profile() platform.CapabilityProfile {
	return m.detector.Profile()
}

// ShouldAnimate is the coarse go/no-go decision for the whole surface:
// accessibility preferences, platform capability, and the tree-wide
// escalation all get a veto.
func (m *Manager) ShouldAnimate() bool {
	m.mu.Lock()
	prefs := m.prefs
	m.mu.Unlock()

	if s, ok := m.provider.Suggestion(); ok && s == recovery.DisableAnimations {
		return false
	}
	profile := m.detector.Profile()
	return motion.ShouldAnimate(profile.IntersectionObserver, prefs.ReducedMotion, prefs.ScreenReader)
}

// ResolveConfig resolves a requested config against current preferences,
// the device tier, and any escalated recovery suggestion. This is the
// call site where the advisory DisableAnimations and ReduceComplexity
// strategies are actually applied.
func (m *Manager) ResolveConfig(base motion.Config) motion.Config {
	m.mu.Lock()
	prefs := m.prefs
	m.mu.Unlock()

	reduced := prefs.ReducedMotion
	mode := prefs.Mode

	if m.detector.Profile().LowEndDevice && mode == motion.ModeHigh {
		mode = motion.ModeBalanced
	}
	if s, ok := m.provider.Suggestion(); ok {
		switch s {
		case recovery.DisableAnimations:
			reduced = true
		case recovery.ReduceComplexity:
			mode = motion.ModeBattery
		}
	}
	return motion.Resolve(base, reduced, prefs.ScreenReader, mode)
}

// Region is one mounted animated UI region: a guarded subtree with its
// resolved motion config and its registrations.
type Region struct {
	ID          string
	AnimationID string
	Boundary    *recovery.Boundary

	manager *Manager
}

// Mount registers a UI region with the resilience layer: its element is
// observed for visibility, and a boundary is created around its
// rendering. Mounting an already mounted id replaces the old region.
func (m *Manager) Mount(regionID, animationID string, el loader.ElementRef) (*Region, error) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil, fmt.Errorf("surface manager disposed")
	}
	old := m.regions[regionID]
	m.mu.Unlock()
	if old != nil {
		old.Unmount()
	}

	r := &Region{
		ID:          regionID,
		AnimationID: animationID,
		manager:     m,
		Boundary: recovery.NewBoundary(recovery.BoundaryConfig{
			Name:       regionID,
			Strategy:   recovery.RetryWithDelay,
			RetryDelay: m.cfg.Recovery.RetryDelay.Std(),
			MaxRetries: m.cfg.Recovery.MaxRetries,
			Log:        m.errLog,
			Provider:   m.provider,
			Dashboard:  m.board,
		}),
	}

	m.loader.ObserveElement(el, animationID)
	m.mu.Lock()
	m.regions[regionID] = r
	m.mu.Unlock()

	logging.Get(logging.CategoryBoot).Debug("region mounted",
		zap.String("region", regionID),
		zap.String("animation", animationID))
	return r, nil
}

// NotifyVisible forwards a visibility signal to the loader.
func (m *Manager) NotifyVisible(el loader.ElementRef) {
	m.loader.NotifyVisible(el)
}

// Preload eagerly warms an animation module.
func (m *Manager) Preload(ctx context.Context, animationID string) error {
	return m.loader.PreloadAnimation(ctx, animationID)
}

// RegisterScroll attaches a scroll-linked cleanup handle for a region to
// the bounded registry.
func (m *Manager) RegisterScroll(animationID string, el registry.ElementRef, cleanup func()) {
	m.registry.RegisterAnimation(animationID, el, cleanup)
}

// TouchScroll refreshes the recency of a scroll handle; call it when a
// scroll-linked animation ticks.
func (m *Manager) TouchScroll(animationID string) {
	m.registry.UpdateLastSeen(animationID)
}

// ReportMetric ingests one performance sample.
func (m *Manager) ReportMetric(metric dashboard.Metric) {
	m.board.AddMetric(metric)
}

// Dashboard exposes the metric store for queries and export.
func (m *Manager) Dashboard() *dashboard.Dashboard { return m.board }

// ErrorLog exposes the process-wide animation error history.
func (m *Manager) ErrorLog() *recovery.Log { return m.errLog }

// Loader exposes the lazy loader for state queries.
func (m *Manager) Loader() *loader.Loader { return m.loader }

// ScrollRegistry exposes the bounded handle registry.
func (m *Manager) ScrollRegistry() *registry.Manager { return m.registry }

// Suggestion exposes the current tree-wide escalation, if any.
func (m *Manager) Suggestion() (recovery.Strategy, bool) {
	return m.provider.Suggestion()
}

// Unmount releases a region: its boundary stops retrying and its region
// entry is dropped. Scroll handles are unregistered separately by
// animation id because several regions may share one.
func (r *Region) Unmount() {
	r.Boundary.Dispose()
	r.manager.mu.Lock()
	if r.manager.regions[r.ID] == r {
		delete(r.manager.regions, r.ID)
	}
	r.manager.mu.Unlock()
}

// Render runs the region's render function through its boundary and
// reports whether fallback content should be shown instead.
func (r *Region) Render(render recovery.RenderFunc) (fallback string, failed bool) {
	_ = r.Boundary.Guard(render)
	return r.Boundary.Fallback()
}

// Dispose tears the whole surface down: every boundary, every scroll
// handle cleanup, and the loader's observations. Idempotent.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	regions := make([]*Region, 0, len(m.regions))
	for _, r := range m.regions {
		regions = append(regions, r)
	}
	m.regions = make(map[string]*Region)
	m.mu.Unlock()

	for _, r := range regions {
		r.Boundary.Dispose()
	}
	m.registry.Dispose()
	m.loader.Dispose()
	logging.Get(logging.CategoryBoot).Debug("surface manager disposed", zap.Int("regions", len(regions)))
}
