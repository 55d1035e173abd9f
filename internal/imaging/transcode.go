package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned by Transcode for sources that are not
// JPEG, PNG or GIF.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// transcodeFormats are the source formats Transcode accepts.
var transcodeFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// Transcode re-encodes sourcePath as a JPEG at destPath with the given
// quality.
//
// Parameters:
//   - sourcePath: The image to copy. Must be JPEG, PNG or GIF.
//   - destPath: Where to write the JPEG. An existing file is replaced. The
//     extension is not consulted; the output is always JPEG.
//   - quality: JPEG quality, clamped to 1-100.
//
// Returns nil on success. The source file is never modified.
func Transcode(sourcePath, destPath string, quality int) error {
	info, err := Probe(sourcePath)
	if err != nil {
		return err
	}
	if !transcodeFormats[info.Format] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, info.Format)
	}

	src, err := imaging.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	// Resample onto a same-size opaque canvas.
	w, h := info.Width, info.Height
	resampled := imaging.Resize(src, w, h, imaging.Lanczos)
	canvas := imaging.Overlay(imaging.New(w, h, color.Black), resampled, image.Pt(0, 0), 1.0)

	return writeJPEG(destPath, canvas, clampQuality(quality))
}

// writeJPEG encodes img into a temporary sibling of destPath and renames it
// into place.
func writeJPEG(destPath string, img image.Image, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".transcode-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := imgio.Save(tmpPath, img, imgio.JPEGEncoder(quality)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move placeholder into place: %w", err)
	}
	return nil
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
