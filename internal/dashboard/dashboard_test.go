package dashboard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAddMetric_LowFrameRateRaisesErrorAlert(t *testing.T) {
	d := New(DefaultThresholds())

	d.AddMetric(Metric{ComponentID: "gallery", FrameRate: 25})

	alerts := d.GetAlerts()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Severity != SeverityError {
		t.Fatalf("Severity = %s, want error", a.Severity)
	}
	if !strings.Contains(a.Message, "Low frame rate") {
		t.Fatalf("Message = %q, want it to contain %q", a.Message, "Low frame rate")
	}
	if a.ComponentID != "gallery" {
		t.Fatalf("ComponentID = %q, want gallery", a.ComponentID)
	}
	if a.ID == "" {
		t.Fatal("alert must carry an id")
	}
}

func TestAddMetric_HealthyFrameRateRaisesNothing(t *testing.T) {
	d := New(DefaultThresholds())
	d.AddMetric(Metric{ComponentID: "hero", FrameRate: 60})
	if alerts := d.GetAlerts(); len(alerts) != 0 {
		t.Fatalf("got %d alerts, want 0: %+v", len(alerts), alerts)
	}
}

func TestAddMetric_UnmeasuredFrameRateRaisesNothing(t *testing.T) {
	d := New(DefaultThresholds())

	// A sample without a frame-rate reading carries zero; that is "not
	// measured", not 0 fps.
	d.AddMetric(Metric{ComponentID: "memory-monitor", MemoryUsageMB: 20})
	if alerts := d.GetAlerts(); len(alerts) != 0 {
		t.Fatalf("got %d alerts, want 0: %+v", len(alerts), alerts)
	}

	// Any measured value below the floor still alerts.
	d.AddMetric(Metric{ComponentID: "frozen", FrameRate: 1})
	alerts := d.GetAlerts()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "Low frame rate") {
		t.Fatalf("Message = %q", alerts[0].Message)
	}
}

func TestAddMetric_MemoryAndRenderThresholds(t *testing.T) {
	d := New(DefaultThresholds())
	d.AddMetric(Metric{
		ComponentID:   "carousel",
		FrameRate:     60,
		MemoryUsageMB: 150,
		RenderTime:    40 * time.Millisecond,
	})

	alerts := d.GetAlerts()
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2: %+v", len(alerts), alerts)
	}
	for _, a := range alerts {
		if a.Severity != SeverityWarning {
			t.Fatalf("Severity = %s, want warning", a.Severity)
		}
	}
	if !strings.Contains(alerts[0].Message, "High memory usage") {
		t.Fatalf("first alert = %q", alerts[0].Message)
	}
	if !strings.Contains(alerts[1].Message, "Slow render") {
		t.Fatalf("second alert = %q", alerts[1].Message)
	}
}

func TestAddMetric_RingBufferCapsPerComponent(t *testing.T) {
	d := New(DefaultThresholds())

	for i := 0; i < 150; i++ {
		d.AddMetric(Metric{ComponentID: "grid", FrameRate: 60, MemoryUsageMB: float64(i)})
	}

	got := d.GetMetrics("grid")
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	// Oldest trimmed first: the survivors are samples 50..149.
	if got[0].MemoryUsageMB != 50 {
		t.Fatalf("first survivor = %v, want 50", got[0].MemoryUsageMB)
	}
	if got[99].MemoryUsageMB != 149 {
		t.Fatalf("last survivor = %v, want 149", got[99].MemoryUsageMB)
	}
}

func TestGetMetrics_InsertionOrderAcrossComponents(t *testing.T) {
	d := New(DefaultThresholds())
	d.AddMetric(Metric{ComponentID: "a", FrameRate: 60, MemoryUsageMB: 1})
	d.AddMetric(Metric{ComponentID: "b", FrameRate: 60, MemoryUsageMB: 2})
	d.AddMetric(Metric{ComponentID: "a", FrameRate: 60, MemoryUsageMB: 3})

	all := d.GetMetrics()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []float64{1, 2, 3} {
		if all[i].MemoryUsageMB != want {
			t.Fatalf("all[%d].MemoryUsageMB = %v, want %v", i, all[i].MemoryUsageMB, want)
		}
	}
}

func TestGetPerformanceSummary(t *testing.T) {
	d := New(DefaultThresholds())

	if _, ok := d.GetPerformanceSummary(); ok {
		t.Fatal("empty dashboard must report no summary")
	}

	d.AddMetric(Metric{ComponentID: "a", FrameRate: 60, MemoryUsageMB: 40})
	d.AddMetric(Metric{ComponentID: "b", FrameRate: 30, MemoryUsageMB: 80})

	s, ok := d.GetPerformanceSummary()
	if !ok {
		t.Fatal("summary expected")
	}
	if s.AverageFrameRate != 45 {
		t.Fatalf("AverageFrameRate = %v, want 45", s.AverageFrameRate)
	}
	if s.AverageMemoryUsageMB != 60 {
		t.Fatalf("AverageMemoryUsageMB = %v, want 60", s.AverageMemoryUsageMB)
	}
	if s.TotalComponents != 2 {
		t.Fatalf("TotalComponents = %d, want 2", s.TotalComponents)
	}
}

func TestExportMetrics_ContainsAllKeys(t *testing.T) {
	d := New(DefaultThresholds())
	d.AddMetric(Metric{ComponentID: "hero", FrameRate: 25, MemoryUsageMB: 30})

	out, err := d.ExportMetrics()
	if err != nil {
		t.Fatalf("ExportMetrics: %v", err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	for _, key := range []string{"timestamp", "summary", "metrics", "alerts"} {
		if _, ok := parsed[key]; !ok {
			t.Fatalf("export missing key %q: %s", key, out)
		}
	}

	var snap struct {
		Metrics []Metric `json:"metrics"`
		Alerts  []Alert  `json:"alerts"`
	}
	if err := json.Unmarshal(out, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Metrics) != 1 || len(snap.Alerts) != 1 {
		t.Fatalf("metrics=%d alerts=%d, want 1 and 1", len(snap.Metrics), len(snap.Alerts))
	}
}

func TestExportMetrics_EmptyDashboardStillHasKeys(t *testing.T) {
	d := New(DefaultThresholds())
	out, err := d.ExportMetrics()
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"timestamp", "summary", "metrics", "alerts"} {
		if _, ok := parsed[key]; !ok {
			t.Fatalf("export missing key %q", key)
		}
	}
	if string(parsed["summary"]) != "null" {
		t.Fatalf("summary = %s, want null with no metrics", parsed["summary"])
	}
}

func TestClearData(t *testing.T) {
	d := New(DefaultThresholds())
	d.AddMetric(Metric{ComponentID: "x", FrameRate: 10})

	if len(d.GetAlerts()) == 0 {
		t.Fatal("expected an alert before clear")
	}

	d.ClearData()
	if len(d.GetMetrics()) != 0 || len(d.GetAlerts()) != 0 {
		t.Fatal("clear must empty metrics and alerts")
	}
	if _, ok := d.GetPerformanceSummary(); ok {
		t.Fatal("no summary after clear")
	}
}

func TestAlertsAreNeverAutoCleared(t *testing.T) {
	d := New(DefaultThresholds())

	// Alerts outlive the metrics that raised them, even when the ring
	// buffer trims those metrics away.
	for i := 0; i < 120; i++ {
		d.AddMetric(Metric{ComponentID: "noisy", FrameRate: 20})
	}
	if got := len(d.GetMetrics("noisy")); got != 100 {
		t.Fatalf("metrics = %d, want 100", got)
	}
	if got := len(d.GetAlerts()); got != 120 {
		t.Fatalf("alerts = %d, want 120", got)
	}
}

func TestThresholds_ZeroValuesFallBackToDefaults(t *testing.T) {
	d := New(Thresholds{})
	d.AddMetric(Metric{ComponentID: "x", FrameRate: 25})
	if len(d.GetAlerts()) != 1 {
		t.Fatal("default low frame rate threshold should apply")
	}
}
