// Package histdir persists history snapshots and their metadata index
// under one directory per tracked resource.
package histdir

import (
	"fmt"
	"path/filepath"

	"github.com/localhist/localhist/internal/core/fsys"
)

// IndexFile is the per-resource metadata index file name.
const IndexFile = "entries.json"

// ContentStore writes and reads immutable content snapshots. Snapshots are
// append-only: one new file per entry, named by the entry id, never
// rewritten.
type ContentStore struct {
	fs fsys.FS
}

// NewContentStore creates a content store over the given filesystem.
func NewContentStore(fs fsys.FS) *ContentStore {
	return &ContentStore{fs: fs}
}

// WriteSnapshot stores data as a new snapshot in the resource directory
// and returns its location.
func (s *ContentStore) WriteSnapshot(dir, id string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("create resource directory: %w", err)
	}

	location := filepath.Join(dir, id)
	if err := s.fs.WriteFileAtomic(location, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return location, nil
}

// ReadSnapshot returns the content stored at location.
func (s *ContentStore) ReadSnapshot(location string) ([]byte, error) {
	data, err := s.fs.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// DeleteSnapshot removes the snapshot at location. Callers treat failures
// as non-fatal: a file no longer referenced by the index is inert.
func (s *ContentStore) DeleteSnapshot(location string) error {
	return s.fs.Remove(location)
}
