// Package placeholder materializes low-quality JPEG copies of storefront
// images for use as lazy-load placeholders.
//
// Placeholders live in one flat cache directory under the public root and
// are keyed by the source file's basename alone. Two different images that
// share a file name therefore share one placeholder: whichever is
// materialized first wins and later requests reuse it. The cache is never
// invalidated; delete the directory to rebuild it.
//
// Materialization is best-effort. Any failure, including a panic inside the
// image codecs, is logged and reported as "no placeholder" so that the
// calling page render continues with its fallback image.
package placeholder
