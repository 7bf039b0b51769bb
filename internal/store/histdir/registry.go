package histdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/localhist/localhist/internal/core/history"
)

// registryFile is the root JSON structure stored on disk for the registry.
type registryFile struct {
	Resources map[string]history.WorkingCopy `json:"resources"`
}

// Registry maps on-disk directory names back to their working copies so
// tracked resources can be enumerated across restarts. It is advisory:
// the per-resource directory is always the authoritative state.
//
// Unlike the per-resource directories, the registry file is shared by
// every concurrent localhist process, so access goes through a file lock.
type Registry struct {
	path string
	mu   sync.RWMutex
}

// NewRegistry creates a registry stored at the given path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// lockPath returns the path to the lock file.
func (r *Registry) lockPath() string {
	return r.path + ".lock"
}

// withFileLock acquires a file lock, executes fn, then releases the lock.
func (r *Registry) withFileLock(lockType int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(r.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// Put records the working copy for a directory name.
func (r *Registry) Put(dir string, wc history.WorkingCopy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(syscall.LOCK_EX, func() error {
		file, err := r.load()
		if err != nil {
			return err
		}

		file.Resources[dir] = wc
		return r.save(file)
	})
}

// Remove drops the registry record for a directory name. Unknown names
// are not an error.
func (r *Registry) Remove(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(syscall.LOCK_EX, func() error {
		file, err := r.load()
		if err != nil {
			return err
		}

		if _, ok := file.Resources[dir]; !ok {
			return nil
		}

		delete(file.Resources, dir)
		return r.save(file)
	})
}

// All returns every registered directory name and its working copy.
func (r *Registry) All() (map[string]history.WorkingCopy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var resources map[string]history.WorkingCopy

	err := r.withFileLock(syscall.LOCK_SH, func() error {
		file, err := r.load()
		if err != nil {
			return err
		}

		resources = file.Resources
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resources, nil
}

// Clear removes the registry file entirely.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.withFileLock(syscall.LOCK_EX, func() error {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove registry: %w", err)
		}
		return nil
	})
}

// load reads the registry file from disk.
// Returns an empty registry if the file doesn't exist or is corrupt: the
// registry is rebuildable advisory data, not worth failing over.
func (r *Registry) load() (registryFile, error) {
	empty := registryFile{Resources: make(map[string]history.WorkingCopy)}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return registryFile{}, fmt.Errorf("read registry: %w", err)
	}

	if len(data) == 0 {
		return empty, nil
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return empty, nil
	}

	if file.Resources == nil {
		file.Resources = make(map[string]history.WorkingCopy)
	}

	return file, nil
}

// save writes the registry file to disk atomically.
func (r *Registry) save(file registryFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry temp file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp) // best effort cleanup
		return fmt.Errorf("rename registry file: %w", err)
	}

	return nil
}
