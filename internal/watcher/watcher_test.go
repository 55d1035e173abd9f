package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/image-lazyload/internal/logger"
)

func mark(s string) string { return "<!-- processed -->" + s }

func waitForFile(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			last = string(data)
			if last == want {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s: got %q, want %q", path, last, want)
}

func TestNew_Validation(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "public")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	tests := []struct {
		name string
		src  string
		out  string
	}{
		{"same directory", src, src},
		{"output inside source", src, filepath.Join(src, "lazy")},
		{"source inside output", src, root},
		{"missing source", filepath.Join(root, "missing"), filepath.Join(root, "out")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.src, tt.out, mark, logger.NewNop()); err == nil {
				t.Error("New should fail")
			}
		})
	}

	w, err := New(src, filepath.Join(root, "out"), mark, logger.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.stop()
}

func TestProcessAll(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "public")
	out := filepath.Join(root, "out")
	files := map[string]string{
		"index.html":          "home",
		"blog/post/page.html": "post",
		"assets/site.css":     "body{}",
	}
	for rel, body := range files {
		path := filepath.Join(src, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	w, err := New(src, out, mark, logger.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.stop()

	n, err := w.ProcessAll()
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if n != 2 {
		t.Errorf("files processed: got %d, want 2", n)
	}

	got, _ := os.ReadFile(filepath.Join(out, "blog", "post", "page.html"))
	if string(got) != mark("post") {
		t.Errorf("page.html: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(out, "assets", "site.css")); !os.IsNotExist(err) {
		t.Error("non-HTML files must not be mirrored")
	}
}

func TestRun_ProcessesChanges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "public")
	out := filepath.Join(root, "out")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(src, out, mark, logger.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForFile(t, filepath.Join(out, "index.html"), mark("v1"))

	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte("v2"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForFile(t, filepath.Join(out, "index.html"), mark("v2"))

	nested := filepath.Join(src, "new", "dir")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "page.html"), []byte("fresh"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForFile(t, filepath.Join(out, "new", "dir", "page.html"), mark("fresh"))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestStop_WaitsForRunningRewrite(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "public")
	out := filepath.Join(root, "out")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	page := filepath.Join(src, "index.html")
	if err := os.WriteFile(page, []byte("body"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	started := make(chan struct{})
	var finished atomic.Bool
	slow := func(s string) string {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		return mark(s)
	}

	w, err := New(src, out, slow, logger.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.SetDebounce(time.Millisecond)
	w.schedule(page)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("rewrite never started")
	}
	w.stop()

	if !finished.Load() {
		t.Error("stop returned while a rewrite was still running")
	}
	waitForFile(t, filepath.Join(out, "index.html"), mark("body"))
}

func TestStop_CancelsPendingAndLaterSchedules(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "public")
	out := filepath.Join(root, "out")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	page := filepath.Join(src, "index.html")
	if err := os.WriteFile(page, []byte("body"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var calls atomic.Int32
	count := func(s string) string {
		calls.Add(1)
		return s
	}

	w, err := New(src, out, count, logger.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.SetDebounce(100 * time.Millisecond)
	w.schedule(page)
	w.schedule(page)
	w.stop()
	w.schedule(page)

	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("got %d rewrites after stop, want 0", n)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); !os.IsNotExist(err) {
		t.Errorf("output written after stop: %v", err)
	}
}
