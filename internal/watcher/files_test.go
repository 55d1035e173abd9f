package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsHTML(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/site/index.html", true},
		{"/site/old.HTM", true},
		{"/site/.index.html.swp", false},
		{"/site/.hidden.html", false},
		{"/site/style.css", false},
		{"/site/html", false},
	}
	for _, tt := range tests {
		if got := IsHTML(tt.path); got != tt.want {
			t.Errorf("IsHTML(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRewriteFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.html")
	dst := filepath.Join(dir, "out", "nested", "in.html")
	if err := os.WriteFile(src, []byte("<img src=\"/a.jpg\">"), 0o640); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := RewriteFile(src, dst, strings.ToUpper); err != nil {
		t.Fatalf("RewriteFile failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != `<IMG SRC="/A.JPG">` {
		t.Errorf("output: got %q", got)
	}
	info, _ := os.Stat(dst)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode: got %v, want 0640", info.Mode().Perm())
	}
}

func TestRewriteFile_InPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RewriteFile(path, path, func(s string) string { return s + "!" }); err != nil {
		t.Fatalf("RewriteFile failed: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "abc!" {
		t.Errorf("got %q, want %q", got, "abc!")
	}
}

func TestRewriteFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := RewriteFile(filepath.Join(dir, "nope.html"), filepath.Join(dir, "o.html"), strings.ToUpper); err == nil {
		t.Error("RewriteFile should fail for a missing source")
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/a/b", "/a", true},
		{"/a", "/a", true},
		{"/ab", "/a", false},
		{"/a", "/a/b", false},
		{"/x/y", "/a", false},
	}
	for _, tt := range tests {
		if got := within(tt.path, tt.dir); got != tt.want {
			t.Errorf("within(%q, %q): got %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}
