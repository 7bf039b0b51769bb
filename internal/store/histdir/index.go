package histdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/history"
)

var (
	// ErrNotFound is returned when a resource directory has no index file.
	ErrNotFound = errors.New("history index not found")
	// ErrCorrupt is returned when the index file cannot be parsed.
	// Callers fall back to a directory scan rather than failing.
	ErrCorrupt = errors.New("history index corrupted")
)

// Index serializes the ordered descriptor list of one resource to its
// entries.json file.
type Index struct {
	fs fsys.FS
}

// NewIndex creates an index codec over the given filesystem.
func NewIndex(fs fsys.FS) *Index {
	return &Index{fs: fs}
}

// Load reads the descriptor list from the resource directory. Returns
// ErrNotFound if no index exists and ErrCorrupt if it cannot be parsed.
func (ix *Index) Load(dir string) ([]history.Descriptor, error) {
	path := filepath.Join(dir, IndexFile)

	data, err := ix.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrCorrupt
	}

	var descriptors []history.Descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrCorrupt)
	}

	return descriptors, nil
}

// Save writes the descriptor list atomically. The order given by the
// caller is preserved (ascending by timestamp).
func (ix *Index) Save(dir string, descriptors []history.Descriptor) error {
	if err := ix.fs.MkdirAll(dir); err != nil {
		return fmt.Errorf("create resource directory: %w", err)
	}

	if descriptors == nil {
		descriptors = []history.Descriptor{}
	}

	data, err := json.Marshal(descriptors)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := ix.fs.WriteFileAtomic(filepath.Join(dir, IndexFile), data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	return nil
}

// Delete removes the index file. Missing files are not an error.
func (ix *Index) Delete(dir string) error {
	err := ix.fs.Remove(filepath.Join(dir, IndexFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}
