// Package sanitize implements the metadata-stripping paths of the
// pipeline: image re-encoding through libvips (with a pure-Go redraw
// fallback), video re-encoding through ffmpeg, and the admission-time
// preview renderer. All failures are classified Error values that map
// onto per-item error states.
package sanitize
