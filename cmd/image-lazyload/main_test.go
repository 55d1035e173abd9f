package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lazyload.yml")
	body := "general:\n  enabled: true\n  lazy_load: true\nlog:\n  level: error\npaths:\n  public_root: " + root + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRewriteCmd_Stdin(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`<p><img src="/media/a.jpg"></p>`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"rewrite", "--config", cfgPath, "-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `data-src="/media/a.jpg"`)
	assert.True(t, strings.HasPrefix(out.String(), `<p><img class="mplazyload mplazyload-icon mplazyload-cms"`))
}

func TestRewriteCmd_OutputDir(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(src, []byte(`<img src="/b.png">`), 0o644))
	outDir := filepath.Join(dir, "out")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"rewrite", "-c", cfgPath, "-o", outDir, src})
	require.NoError(t, cmd.Execute())

	original, _ := os.ReadFile(src)
	assert.Equal(t, `<img src="/b.png">`, string(original))
	rewritten, err := os.ReadFile(filepath.Join(outDir, "page.html"))
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), `data-src="/b.png"`)
}

func TestRewriteCmd_OutputDirNameClash(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "index.html"), []byte(`<img src="/`+sub+`.png">`), 0o644))
	}
	outDir := filepath.Join(dir, "out")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"rewrite", "-c", cfgPath, "-o", outDir,
		filepath.Join(dir, "a", "index.html"), filepath.Join(dir, "b", "index.html")})

	assert.Error(t, cmd.Execute())
	assert.NoFileExists(t, filepath.Join(outDir, "index.html"))
}

func TestOutputPaths(t *testing.T) {
	dsts, err := outputPaths([]string{"a/x.html", "-", "b/y.html"}, "out")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("out", "x.html"), "", filepath.Join("out", "y.html")}, dsts)

	dsts, err = outputPaths([]string{"a/x.html", "b/x.html"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.html", "b/x.html"}, dsts)

	_, err = outputPaths([]string{"a/x.html", "./a/x.html"}, "")
	assert.Error(t, err)
}

func TestRewriteCmd_Errors(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"rewrite"})
	assert.Error(t, cmd.Execute(), "rewrite needs at least one file")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"rewrite", "--config", filepath.Join(t.TempDir(), "missing.yml"), "x.html"})
	assert.Error(t, cmd.Execute())
}

func TestVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "image-lazyload dev")
}
