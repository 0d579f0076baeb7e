// Package dashboard collects per-component performance samples, keeps a
// bounded history per component, and raises threshold alerts the moment
// a sample crosses a limit. Ingestion is push-based: frame-rate and
// memory monitors in the host feed it, nothing here schedules work.
package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// BatteryImpact is the qualitative battery cost of a sample.
type BatteryImpact string

const (
	BatteryLow    BatteryImpact = "low"
	BatteryMedium BatteryImpact = "medium"
	BatteryHigh   BatteryImpact = "high"
)

// Metric is one performance sample for a component.
type Metric struct {
	ComponentID string        `json:"component_id"`
	RenderTime  time.Duration `json:"render_time"`
	// FrameRate in frames per second. Zero means this sample did not
	// measure frame rate (memory- or render-only monitors); only
	// positive values are checked against the low frame-rate threshold.
	FrameRate float64 `json:"frame_rate"`
	MemoryUsageMB float64       `json:"memory_usage_mb"`
	BatteryImpact BatteryImpact `json:"battery_impact,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// AlertSeverity distinguishes advisory from actionable alerts.
type AlertSeverity string

const (
	SeverityWarning AlertSeverity = "warning"
	SeverityError   AlertSeverity = "error"
)

// Alert is raised synchronously when a metric crosses a threshold.
// Alerts are never auto-cleared; only ClearData removes them.
type Alert struct {
	ID          string        `json:"id"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	ComponentID string        `json:"component_id"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Summary aggregates across all stored metrics.
type Summary struct {
	AverageFrameRate     float64 `json:"average_frame_rate"`
	AverageMemoryUsageMB float64 `json:"average_memory_usage_mb"`
	TotalComponents      int     `json:"total_components"`
}

// Thresholds are the alert limits and retention cap. Zero-valued fields
// fall back to the package defaults.
type Thresholds struct {
	// LowFrameRate raises an error alert when a sample drops below it.
	LowFrameRate float64
	// MemoryMB raises a warning alert when a sample exceeds it.
	MemoryMB float64
	// SlowRender raises a warning alert when a render exceeds it.
	SlowRender time.Duration
	// MetricCap bounds the per-component ring buffer.
	MetricCap int
}

// DefaultThresholds returns the reference limits: 30 fps floor, 100 MB
// memory ceiling, one 60 fps frame of render budget, 100 samples kept
// per component.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowFrameRate: 30,
		MemoryMB:     100,
		SlowRender:   16700 * time.Microsecond,
		MetricCap:    100,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.LowFrameRate == 0 {
		t.LowFrameRate = def.LowFrameRate
	}
	if t.MemoryMB == 0 {
		t.MemoryMB = def.MemoryMB
	}
	if t.SlowRender == 0 {
		t.SlowRender = def.SlowRender
	}
	if t.MetricCap <= 0 {
		t.MetricCap = def.MetricCap
	}
	return t
}

// record pairs a metric with a global sequence number so cross-component
// queries can reproduce insertion order after per-component trimming.
type record struct {
	Metric
	seq uint64
}

// Dashboard is the metric and alert store. Safe for concurrent use;
// instantiate freely in tests, or share the package Default.
type Dashboard struct {
	mu         sync.Mutex
	thresholds Thresholds
	metrics    map[string][]record
	alerts     []Alert
	seq        uint64
	now        func() time.Time
}

// New creates a dashboard with the given thresholds.
func New(t Thresholds) *Dashboard {
	return &Dashboard{
		thresholds: t.withDefaults(),
		metrics:    make(map[string][]record),
		now:        time.Now,
	}
}

// Default is the process-wide dashboard instance.
var Default = New(DefaultThresholds())

// AddMetric appends a sample to the component's ring buffer, trimming
// the oldest entry beyond the cap, then synchronously evaluates the
// alert rules against the new sample.
func (d *Dashboard) AddMetric(m Metric) {
	d.mu.Lock()
	if m.Timestamp.IsZero() {
		m.Timestamp = d.now()
	}
	d.seq++
	buf := append(d.metrics[m.ComponentID], record{Metric: m, seq: d.seq})
	if over := len(buf) - d.thresholds.MetricCap; over > 0 {
		buf = buf[over:]
	}
	d.metrics[m.ComponentID] = buf

	alerts := d.evaluateLocked(m)
	d.alerts = append(d.alerts, alerts...)
	d.mu.Unlock()

	log := logging.Get(logging.CategoryPerf)
	for _, a := range alerts {
		log.Warn("performance alert",
			zap.String("severity", string(a.Severity)),
			zap.String("component", a.ComponentID),
			zap.String("message", a.Message))
	}
}

// evaluateLocked applies the threshold rules to one sample.
func (d *Dashboard) evaluateLocked(m Metric) []Alert {
	var out []Alert
	raise := func(sev AlertSeverity, msg string) {
		out = append(out, Alert{
			ID:          uuid.NewString(),
			Severity:    sev,
			Message:     msg,
			ComponentID: m.ComponentID,
			Timestamp:   m.Timestamp,
		})
	}

	if m.FrameRate > 0 && m.FrameRate < d.thresholds.LowFrameRate {
		raise(SeverityError, fmt.Sprintf("Low frame rate: %.1f fps", m.FrameRate))
	}
	if m.MemoryUsageMB > d.thresholds.MemoryMB {
		raise(SeverityWarning, fmt.Sprintf("High memory usage: %.1f MB", m.MemoryUsageMB))
	}
	if m.RenderTime > d.thresholds.SlowRender {
		raise(SeverityWarning, fmt.Sprintf("Slow render: %v", m.RenderTime))
	}
	return out
}

func sortBySeq(rs []record) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })
}

// GetMetrics returns stored metrics in insertion order, for one
// component when an id is given, otherwise across all components.
func (d *Dashboard) GetMetrics(componentID ...string) []Metric {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(componentID) > 0 {
		buf := d.metrics[componentID[0]]
		out := make([]Metric, len(buf))
		for i, r := range buf {
			out[i] = r.Metric
		}
		return out
	}

	var all []record
	for _, buf := range d.metrics {
		all = append(all, buf...)
	}
	sortBySeq(all)
	out := make([]Metric, len(all))
	for i, r := range all {
		out[i] = r.Metric
	}
	return out
}

// GetAlerts returns every alert raised so far, in generation order.
func (d *Dashboard) GetAlerts() []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Alert, len(d.alerts))
	copy(out, d.alerts)
	return out
}

// GetPerformanceSummary aggregates over all stored metrics. ok is false
// when no metrics exist, which is distinct from a summary of zeroes.
func (d *Dashboard) GetPerformanceSummary() (Summary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summaryLocked()
}

func (d *Dashboard) summaryLocked() (Summary, bool) {
	var (
		frames float64
		mem    float64
		count  int
	)
	for _, buf := range d.metrics {
		for _, r := range buf {
			frames += r.FrameRate
			mem += r.MemoryUsageMB
			count++
		}
	}
	if count == 0 {
		return Summary{}, false
	}
	return Summary{
		AverageFrameRate:     frames / float64(count),
		AverageMemoryUsageMB: mem / float64(count),
		TotalComponents:      len(d.metrics),
	}, true
}

// export is the serialized snapshot shape. Summary is null when no
// metrics exist; the key itself is always present.
type export struct {
	Timestamp time.Time `json:"timestamp"`
	Summary   *Summary  `json:"summary"`
	Metrics   []Metric  `json:"metrics"`
	Alerts    []Alert   `json:"alerts"`
}

// ExportMetrics serializes a snapshot containing the timestamp, summary,
// full metric list, and full alert list.
func (d *Dashboard) ExportMetrics() ([]byte, error) {
	d.mu.Lock()
	snap := export{
		Timestamp: d.now(),
		Metrics:   []Metric{},
		Alerts:    append([]Alert{}, d.alerts...),
	}
	if s, ok := d.summaryLocked(); ok {
		snap.Summary = &s
	}
	var all []record
	for _, buf := range d.metrics {
		all = append(all, buf...)
	}
	d.mu.Unlock()

	sortBySeq(all)
	for _, r := range all {
		snap.Metrics = append(snap.Metrics, r.Metric)
	}
	return json.MarshalIndent(snap, "", "  ")
}

// ClearData empties all metrics and alerts.
func (d *Dashboard) ClearData() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = make(map[string][]record)
	d.alerts = nil
}
