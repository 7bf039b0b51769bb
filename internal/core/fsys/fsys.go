// Package fsys provides the filesystem seam used by the history store.
package fsys

import (
	"fmt"
	"os"
)

// FS is the set of filesystem operations the history store depends on.
// Implementations must return errors satisfying os.IsNotExist for missing
// files and directories.
type FS interface {
	ReadFile(path string) ([]byte, error)
	// WriteFileAtomic writes the whole file so that readers never observe
	// a partially written file.
	WriteFileAtomic(path string, data []byte) error
	Remove(path string) error
	RemoveAll(path string) error
	ReadDir(path string) ([]os.DirEntry, error)
	MkdirAll(path string) error
	Stat(path string) (os.FileInfo, error)
}

// OS implements FS against the real filesystem.
type OS struct{}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes to a temp file and renames it into place.
func (OS) WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func (OS) Remove(path string) error {
	return os.Remove(path)
}

func (OS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (OS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
