package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageInfo contains metadata about an image file, read from its header
// without decoding pixel data.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder: "jpeg", "png",
	// "gif", "bmp" or "webp". Detection is based on file contents, not the
	// extension.
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Probe reads the dimensions and format of the image at path.
//
// Only the header is decoded, so probing a large photo is cheap. This is the
// call the rewrite engine makes for every tag whose source file exists.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the header is not a recognised image format
func Probe(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns only the dimensions of the image at path.
func GetDimensions(path string) (*DimensionsResult, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: info.Width, Height: info.Height}, nil
}

// IsBelow reports whether both dimensions are strictly under the minimums.
// An image that is small in only one direction (a thin banner) is not below.
func (d *DimensionsResult) IsBelow(minWidth, minHeight int) bool {
	return d.Width < minWidth && d.Height < minHeight
}
