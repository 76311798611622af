package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)
}

func stringEntry(name, content string) Entry {
	return Entry{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestArchiveName(t *testing.T) {
	got := ArchiveName(fixedClock())
	if got != "cleaned_media_07-03_09-05.zip" {
		t.Errorf("ArchiveName = %q, want cleaned_media_07-03_09-05.zip", got)
	}
}

func TestExportWritesAllEntries(t *testing.T) {
	dir := t.TempDir()
	e := NewExporterWithClock(dir, fixedClock)

	path, err := e.Export([]Entry{
		stringEntry("cleaned_a.jpg", "jpeg bytes"),
		stringEntry("cleaned_b.mp4", "mp4 bytes"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "cleaned_media_07-03_09-05.zip" {
		t.Errorf("archive path = %q", path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer zr.Close()

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(b)
		if f.Method != zip.Store {
			t.Errorf("entry %s method = %d, want Store", f.Name, f.Method)
		}
	}

	if contents["cleaned_a.jpg"] != "jpeg bytes" || contents["cleaned_b.mp4"] != "mp4 bytes" {
		t.Errorf("archive contents = %v", contents)
	}
}

func TestExportEmptyIsNoop(t *testing.T) {
	dir := t.TempDir()
	e := NewExporterWithClock(dir, fixedClock)

	path, err := e.Export(nil)
	if err != nil {
		t.Fatalf("Export(nil) failed: %v", err)
	}
	if path != "" {
		t.Errorf("Export(nil) path = %q, want empty", path)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("export dir should stay empty, has %d entries", len(entries))
	}
}

func TestExportNameCollisions(t *testing.T) {
	dir := t.TempDir()
	e := NewExporterWithClock(dir, fixedClock)

	path, err := e.Export([]Entry{
		stringEntry("cleaned_x.jpg", "one"),
		stringEntry("cleaned_x.jpg", "two"),
		stringEntry("cleaned_x.jpg", "three"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"cleaned_x.jpg", "cleaned_x (1).jpg", "cleaned_x (2).jpg"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestExportFailureRemovesPartialArchive(t *testing.T) {
	dir := t.TempDir()
	e := NewExporterWithClock(dir, fixedClock)

	_, err := e.Export([]Entry{
		stringEntry("ok.jpg", "fine"),
		{
			Name: "broken.jpg",
			Open: func() (io.ReadCloser, error) {
				return nil, errors.New("backing blob gone")
			},
		},
	})
	if err == nil {
		t.Fatal("expected an export error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("partial archive should be removed, dir has %d entries", len(entries))
	}
}
