package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExecutableWatcherSignalsModification(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vcbot")
	if err := os.WriteFile(path, []byte("v1"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := NewExecutableWatcher()
	w.path = path
	w.interval = 10 * time.Millisecond
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("modification not reported")
	}
}

func TestWorkDirCreatesNestedDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir, err := WorkDir(root, "data")
	if err != nil {
		t.Fatalf("work dir: %v", err)
	}
	if dir != filepath.Join(root, "data") {
		t.Fatalf("unexpected dir %q", dir)
	}
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestRecoverSwallowsPanic(t *testing.T) {
	t.Parallel()

	func() {
		defer Recover("test")
		panic("boom")
	}()
}
