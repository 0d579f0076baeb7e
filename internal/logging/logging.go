// Package logging provides category-scoped structured logging for the
// motion resilience layer. Each subsystem logs through its own category so
// hosts can enable loader tracing without drowning in registry eviction
// noise. The package defaults to a no-op logger; nothing is written until
// Init installs a real one.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup, capability detection
	CategoryLoader   Category = "loader"   // lazy animation loading
	CategoryRegistry Category = "registry" // scroll handle registry, evictions
	CategoryPerf     Category = "perf"     // metric ingestion, alerts
	CategoryRecovery Category = "recovery" // error boundaries, retries
	CategoryConfig   Category = "config"   // config load and hot-reload
)

// Config controls which categories emit and at what level.
type Config struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Level      string          `yaml:"level" json:"level"`
	Categories map[string]bool `yaml:"categories" json:"categories"`
}

var (
	mu   sync.RWMutex
	root = zap.NewNop()
	cfg  Config
)

// Init installs the root logger and the category config. Passing a nil
// logger builds a production zap logger at the configured level.
func Init(c Config, logger *zap.Logger) error {
	if logger == nil {
		zc := zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(levelOrDefault(c.Level))
		if err != nil {
			return err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
		logger, err = zc.Build()
		if err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	cfg = c
	root = logger
	return nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

// Get returns the logger for a category, or a no-op logger when the
// category is disabled. Safe to call before Init.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if !enabledLocked(cat) {
		return zap.NewNop()
	}
	return root.Named(string(cat))
}

// Sugar is Get with a sugared logger, for printf-heavy call sites.
func Sugar(cat Category) *zap.SugaredLogger {
	return Get(cat).Sugar()
}

// Enabled reports whether a category currently emits.
func Enabled(cat Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabledLocked(cat)
}

func enabledLocked(cat Category) bool {
	if cfg.Categories == nil {
		return true // no filter: everything enabled
	}
	enabled, ok := cfg.Categories[string(cat)]
	if !ok {
		return true
	}
	return enabled
}

// Reconfigure swaps the category config without replacing the logger.
// Used by the config hot-reload watcher.
func Reconfigure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}
