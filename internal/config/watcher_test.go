package config

// Watcher tests exercise real fsnotify events through a temp directory.
// No goleak here: fsnotify keeps platform goroutines alive past Close on
// some systems, and the watcher's own loop is covered by Stop blocking
// until the loop exits.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "registry:\n  max_active: 10\n")

	var mu sync.Mutex
	var got []Config
	w, err := NewWatcher(path, func(cfg Config) {
		mu.Lock()
		got = append(got, cfg)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "registry:\n  max_active: 7\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatal("no reload observed")
	}
	if got[len(got)-1].Registry.MaxActive != 7 {
		t.Fatalf("MaxActive = %d, want 7", got[len(got)-1].Registry.MaxActive)
	}
	if s := w.Stats(); s.Reloads == 0 {
		t.Fatalf("stats = %+v, want at least one reload", s)
	}
}

func TestWatcher_BadConfigKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "registry:\n  max_active: 10\n")

	reloads := make(chan Config, 4)
	w, err := NewWatcher(path, func(cfg Config) { reloads <- cfg })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeConfig(t, path, "registry: [broken\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if w.Stats().ParseFailures > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if w.Stats().ParseFailures == 0 {
		t.Fatal("parse failure not recorded")
	}

	select {
	case cfg := <-reloads:
		t.Fatalf("bad config must not be delivered: %+v", cfg)
	default:
	}
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "{}\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Never started: Stop must still release the file watcher and must
	// not panic, even repeated.
	w.Stop()
	w.Stop()

	if err := w.Start(context.Background()); !errors.Is(err, ErrWatcherStopped) {
		t.Fatalf("Start after Stop: err = %v, want ErrWatcherStopped", err)
	}
}

func TestWatcher_IsSingleUse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "{}\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()

	if err := w.Start(context.Background()); !errors.Is(err, ErrWatcherStopped) {
		t.Fatalf("restart: err = %v, want ErrWatcherStopped", err)
	}
	w.Stop() // still safe
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "{}\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	writeConfig(t, path, "{}\n")

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	cancel()
	// Stop still returns promptly after the loop exited on its own.
	done := make(chan struct{})
	go func() { w.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after context cancellation")
	}
}
