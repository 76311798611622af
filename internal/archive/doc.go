// Package archive bundles sanitized outputs into a downloadable zip
// archive named after the export timestamp.
package archive
