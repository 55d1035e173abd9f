package placeholder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/image-lazyload/internal/imaging"
	"github.com/ironsheep/image-lazyload/internal/logger"
)

// Quality is the JPEG quality placeholders are written at.
const Quality = 10

// TranscodeFunc writes a JPEG copy of sourcePath to destPath.
type TranscodeFunc func(sourcePath, destPath string, quality int) error

// Materializer creates and reuses cached placeholder files.
type Materializer struct {
	publicRoot string
	cacheDir   string
	urlPrefix  string
	transcode  TranscodeFunc
	log        logger.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithTranscoder replaces imaging.Transcode.
func WithTranscoder(fn TranscodeFunc) Option {
	return func(m *Materializer) { m.transcode = fn }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l logger.Logger) Option {
	return func(m *Materializer) { m.log = l }
}

// New creates a Materializer writing into publicRoot/cacheDir and returning
// URLs of the form urlPrefix + basename.
func New(publicRoot, cacheDir, urlPrefix string, opts ...Option) *Materializer {
	m := &Materializer{
		publicRoot: publicRoot,
		cacheDir:   cacheDir,
		urlPrefix:  urlPrefix,
		transcode:  imaging.Transcode,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CachePath returns where the placeholder for absImagePath is stored.
func (m *Materializer) CachePath(absImagePath string) string {
	return filepath.Join(m.publicRoot, m.cacheDir, filepath.Base(absImagePath))
}

// URL returns the public URL of the placeholder for absImagePath.
func (m *Materializer) URL(absImagePath string) string {
	return m.urlPrefix + filepath.Base(absImagePath)
}

// Ensure returns the URL of the placeholder for absImagePath, transcoding
// it on first request. ok is false when no placeholder exists and none
// could be made.
func (m *Materializer) Ensure(absImagePath string) (url string, ok bool) {
	base := filepath.Base(absImagePath)
	if base == "." || base == string(filepath.Separator) {
		return "", false
	}

	dest := m.CachePath(absImagePath)
	if fileExists(dest) {
		return m.URL(absImagePath), true
	}

	log := m.log.With(logger.String("image", absImagePath), logger.String("placeholder", dest))
	defer func() {
		if r := recover(); r != nil {
			log.Warn("placeholder materialization panicked", logger.String("panic", fmt.Sprint(r)))
			url, ok = "", false
		}
	}()

	if err := m.materialize(absImagePath, dest); err != nil {
		log.Warn("placeholder unavailable", logger.Error(err))
		return "", false
	}
	log.Debug("placeholder created")
	return m.URL(absImagePath), true
}

func (m *Materializer) materialize(absImagePath, dest string) error {
	srcDir := StripVersionAlias(filepath.Dir(absImagePath))
	dir, err := os.Open(srcDir)
	if err != nil {
		return fmt.Errorf("source directory not readable: %w", err)
	}
	dir.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := m.transcode(absImagePath, dest, Quality); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// URLPrefix joins a media base URL and a cache directory that lives under
// the media directory: ("https://x/media", "media/a/b/") gives
// "https://x/media/a/b/". With no media URL the cache directory is served
// root-relative from the public root: ("", "media/a/b/") gives "/media/a/b/".
func URLPrefix(mediaURL, cacheDir string) string {
	if mediaURL == "" {
		dir := strings.Trim(filepath.ToSlash(cacheDir), "/")
		if dir == "" {
			return "/"
		}
		return "/" + dir + "/"
	}
	rel := strings.TrimPrefix(filepath.ToSlash(cacheDir), "media/")
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return strings.TrimSuffix(mediaURL, "/") + "/"
	}
	return strings.TrimSuffix(mediaURL, "/") + "/" + rel + "/"
}
