package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-cleaner/internal/logging"
)

// Entry is one sanitized output to be written into the archive under
// its resolved name.
type Entry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Exporter bundles sanitized outputs into a single zip archive in the
// export directory.
type Exporter struct {
	exportDir string
	now       func() time.Time
}

// NewExporter creates an exporter writing into exportDir.
func NewExporter(exportDir string) *Exporter {
	return &Exporter{exportDir: exportDir, now: time.Now}
}

// NewExporterWithClock creates an exporter with an injected clock for
// tests.
func NewExporterWithClock(exportDir string, now func() time.Time) *Exporter {
	return &Exporter{exportDir: exportDir, now: now}
}

// ArchiveName returns the archive filename for a given timestamp:
// cleaned_media_DD-MM_HH-MM.zip, zero-padded.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("cleaned_media_%02d-%02d_%02d-%02d.zip",
		t.Day(), int(t.Month()), t.Hour(), t.Minute())
}

// Export writes every entry into a fresh archive and returns its path.
// With zero entries it does nothing and returns an empty path. Media
// payloads are already compressed, so entries are stored uncompressed.
func (e *Exporter) Export(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(e.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.exportDir, ArchiveName(e.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	used := make(map[string]int)

	writeErr := func() error {
		for _, entry := range entries {
			name := uniqueName(used, entry.Name)

			w, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name,
				Method:   zip.Store,
				Modified: e.now(),
			})
			if err != nil {
				return fmt.Errorf("failed to add %s: %w", name, err)
			}

			rc, err := entry.Open()
			if err != nil {
				return fmt.Errorf("failed to read result for %s: %w", name, err)
			}
			_, err = io.Copy(w, rc)
			if cerr := rc.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
		}
		return nil
	}()

	if err := zw.Close(); writeErr == nil {
		writeErr = err
	}
	if err := f.Close(); writeErr == nil {
		writeErr = err
	}

	if writeErr != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn("failed to remove partial archive %s: %v", path, rmErr)
		}
		return "", writeErr
	}

	logging.Info("exported %d file(s) to %s", len(entries), path)
	return path, nil
}

// uniqueName disambiguates colliding entry names by inserting " (n)"
// before the extension so no archive entry silently overwrites another.
func uniqueName(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}
