// Package watcher post-processes a rendered site tree: every HTML file
// under a source directory is rewritten into a mirror directory, once at
// start and again whenever fsnotify reports it created or modified.
//
// Output always goes to a separate tree. Rewriting is not idempotent (a
// rewritten tag still matches and would gain a second data-src), so a file
// must never be fed its own output.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ProcessFunc transforms one HTML document.
type ProcessFunc func(html string) string

// IsHTML reports whether path names an HTML file that should be processed.
// Dot-files are ignored so editors' temp files are skipped.
func IsHTML(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return ext == ".html" || ext == ".htm"
}

// RewriteFile reads src, applies process and writes the result to dst,
// creating dst's directory if needed. src and dst may be the same file.
func RewriteFile(src, dst string, process ProcessFunc) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(dst, []byte(process(string(data))), mode); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
