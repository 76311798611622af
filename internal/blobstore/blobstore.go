package blobstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"media-cleaner/internal/logging"

	"github.com/google/uuid"
)

// Handle is an opaque reference to a blob owned by a Store. The zero
// value refers to no blob.
type Handle string

// None is the zero Handle.
const None Handle = ""

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("blob store is closed")

// ErrNotFound is returned when a handle does not refer to a live blob.
var ErrNotFound = errors.New("blob not found")

type blobInfo struct {
	path string
	size int64
}

// Store keeps session-scoped byte blobs in a scratch directory and
// hands out revocable handles to them. Releasing a handle is
// idempotent; the backing file is removed exactly once.
type Store struct {
	dir    string
	mu     sync.Mutex
	blobs  map[Handle]blobInfo
	closed bool
}

// Open creates a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Store{
		dir:   dir,
		blobs: make(map[Handle]blobInfo),
	}, nil
}

// Put copies r into the store and returns a handle to the new blob.
// ext is appended to the backing file name (including the dot) so that
// tools keying off extensions (ffmpeg) behave.
func (s *Store) Put(r io.Reader, ext string) (Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return None, ErrClosed
	}
	s.mu.Unlock()

	id := Handle(uuid.NewString())
	path := filepath.Join(s.dir, string(id)+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return None, fmt.Errorf("failed to create blob file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			logging.Warn("failed to remove partial blob %s: %v", path, rmErr)
		}
		return None, fmt.Errorf("failed to write blob: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if rmErr := os.Remove(path); rmErr != nil {
			logging.Warn("failed to remove orphaned blob %s: %v", path, rmErr)
		}
		return None, ErrClosed
	}
	s.blobs[id] = blobInfo{path: path, size: size}
	return id, nil
}

// PutBytes stores b and returns a handle to the new blob.
func (s *Store) PutBytes(b []byte, ext string) (Handle, error) {
	return s.Put(bytes.NewReader(b), ext)
}

// TempPath reserves a path inside the scratch directory for a writer
// that produces its output as a file (ffmpeg). The path is not tracked
// until Adopt is called on it.
func (s *Store) TempPath(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+ext)
}

// Adopt registers an existing file (previously obtained via TempPath)
// as a tracked blob. The store takes ownership of the file.
func (s *Store) Adopt(path string) (Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return None, fmt.Errorf("failed to adopt blob file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return None, ErrClosed
	}
	id := Handle(uuid.NewString())
	s.blobs[id] = blobInfo{path: path, size: info.Size()}
	return id, nil
}

// Open returns a reader over the blob. The caller closes the file.
func (s *Store) Open(h Handle) (*os.File, error) {
	path, ok := s.Path(h)
	if !ok {
		return nil, ErrNotFound
	}
	return os.Open(path)
}

// ReadAll returns the full contents of the blob.
func (s *Store) ReadAll(h Handle) ([]byte, error) {
	path, ok := s.Path(h)
	if !ok {
		return nil, ErrNotFound
	}
	return os.ReadFile(path)
}

// Path returns the backing file path for a live handle.
func (s *Store) Path(h Handle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.blobs[h]
	if !ok {
		return "", false
	}
	return info.path, true
}

// Size returns the blob size in bytes, or 0 for a dead handle.
func (s *Store) Size(h Handle) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs[h].size
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Release revokes a handle and removes its backing file. Releasing the
// zero handle or an already-released handle is a no-op.
func (s *Store) Release(h Handle) {
	if h == None {
		return
	}

	s.mu.Lock()
	info, ok := s.blobs[h]
	if ok {
		delete(s.blobs, h)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := os.Remove(info.path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove blob file %s: %v", info.path, err)
	}
}

// Close releases every live blob and marks the store unusable.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	blobs := s.blobs
	s.blobs = make(map[Handle]blobInfo)
	s.mu.Unlock()

	var firstErr error
	for _, info := range blobs {
		if err := os.Remove(info.path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove blob file %s: %v", info.path, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
