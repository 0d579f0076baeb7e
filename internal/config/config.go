// Package config holds every tunable cap, threshold and delay of the
// motion resilience layer in one yaml-backed structure. Each knob has a
// documented default; a missing file or a partial file falls back to
// those defaults rather than failing the host.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// Duration is a time.Duration that unmarshals from yaml strings like
// "2s" or "16.7ms". Bare numbers are read as nanoseconds.
type Duration time.Duration

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts either a duration string or a nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Config is the root configuration.
type Config struct {
	Logging   logging.Config  `yaml:"logging"`
	Loader    LoaderConfig    `yaml:"loader"`
	Registry  RegistryConfig  `yaml:"registry"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Recovery  RecoveryConfig  `yaml:"recovery"`
}

// LoaderConfig configures the lazy animation loader.
type LoaderConfig struct {
	// LoadTimeout bounds a single animation module load. Zero disables
	// the bound.
	LoadTimeout Duration `yaml:"load_timeout"`
}

// RegistryConfig configures the scroll animation registry.
type RegistryConfig struct {
	// MaxActive caps concurrently registered scroll animation handles.
	// The least-recently-seen handle is evicted beyond the cap.
	MaxActive int `yaml:"max_active"`
}

// DashboardConfig configures metric retention and alert thresholds.
type DashboardConfig struct {
	// MetricCap is the per-component ring buffer size.
	MetricCap int `yaml:"metric_cap"`
	// LowFrameRate raises an error alert when a sample drops below it.
	LowFrameRate float64 `yaml:"low_frame_rate"`
	// MemoryThresholdMB raises a warning alert when exceeded.
	MemoryThresholdMB float64 `yaml:"memory_threshold_mb"`
	// SlowRender raises a warning alert when a render exceeds it.
	SlowRender Duration `yaml:"slow_render"`
}

// RecoveryConfig configures error boundaries and the process-wide log.
type RecoveryConfig struct {
	// MaxRetries bounds automatic re-render attempts per boundary.
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the wait before an automatic re-render attempt.
	RetryDelay Duration `yaml:"retry_delay"`
	// ErrorLogCap bounds the process-wide animation error history.
	ErrorLogCap int `yaml:"error_log_cap"`
}

// Default returns the production defaults. Every threshold referenced in
// alerts or eviction comes from here unless overridden by file.
func Default() Config {
	return Config{
		Logging: logging.Config{
			Level: "info",
		},
		Loader: LoaderConfig{
			LoadTimeout: Duration(10 * time.Second),
		},
		Registry: RegistryConfig{
			MaxActive: 50,
		},
		Dashboard: DashboardConfig{
			MetricCap:         100,
			LowFrameRate:      30,
			MemoryThresholdMB: 100,
			SlowRender:        Duration(16700 * time.Microsecond), // one 60fps frame
		},
		Recovery: RecoveryConfig{
			MaxRetries:  3,
			RetryDelay:  Duration(2 * time.Second),
			ErrorLogCap: 50,
		},
	}
}

// Load reads a yaml config file over the defaults. A missing file is not
// an error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate rejects values that would disable the bounded-resource
// guarantees (non-positive caps, negative delays).
func (c Config) Validate() error {
	if c.Registry.MaxActive <= 0 {
		return fmt.Errorf("registry.max_active must be positive, got %d", c.Registry.MaxActive)
	}
	if c.Dashboard.MetricCap <= 0 {
		return fmt.Errorf("dashboard.metric_cap must be positive, got %d", c.Dashboard.MetricCap)
	}
	if c.Dashboard.LowFrameRate < 0 {
		return fmt.Errorf("dashboard.low_frame_rate must not be negative, got %v", c.Dashboard.LowFrameRate)
	}
	if c.Recovery.MaxRetries < 0 {
		return fmt.Errorf("recovery.max_retries must not be negative, got %d", c.Recovery.MaxRetries)
	}
	if c.Recovery.RetryDelay < 0 {
		return fmt.Errorf("recovery.retry_delay must not be negative, got %v", c.Recovery.RetryDelay)
	}
	if c.Recovery.ErrorLogCap <= 0 {
		return fmt.Errorf("recovery.error_log_cap must be positive, got %d", c.Recovery.ErrorLogCap)
	}
	if c.Loader.LoadTimeout < 0 {
		return fmt.Errorf("loader.load_timeout must not be negative, got %v", c.Loader.LoadTimeout)
	}
	return nil
}
