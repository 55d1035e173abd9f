// Package imaging provides the two image operations the lazy-load rewriter
// needs: probing a file's dimensions and format, and re-encoding a file as a
// low-quality JPEG placeholder.
//
// # Formats
//
// Probing understands JPEG, PNG, GIF, BMP and WebP, which covers what a
// storefront's CMS blocks reference. Transcoding accepts only JPEG, PNG and
// GIF sources; anything else fails with ErrUnsupportedFormat.
//
// # Transcoding
//
// Transcode is a quality pass, not a resize pass. The source is resampled
// onto a canvas of exactly its own dimensions and written as JPEG at the
// requested quality (1-100). Transparent areas become black, because JPEG
// carries no alpha channel.
//
// The destination is written through a temporary file in the same directory
// and renamed into place, so a concurrent reader never sees a partial
// placeholder. Concurrent writers of the same destination race and the last
// rename wins; the output is deterministic for a fixed quality, so either
// result is correct.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
//
// # Error Handling
//
// Functions return errors for:
//   - Missing or unreadable files
//   - Data that is not a recognised image
//   - Unsupported transcode source formats
//   - Encoding or rename failures on the destination
//
// Callers on the page-render path treat every error as "no placeholder".
package imaging
