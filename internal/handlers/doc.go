// Package handlers provides HTTP request handlers for the media
// cleaner API.
//
// It includes handlers for:
//   - File admission and queue listing
//   - Per-item and batch sanitization
//   - Preview and result downloads
//   - Archive export
//   - Settings and duplicate notifications
//   - Health checks and version info
package handlers
