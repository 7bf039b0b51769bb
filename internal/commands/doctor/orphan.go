package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/store/histdir"
)

// OrphanCheck detects snapshot files no index references. Orphans are
// inert but consume disk; with fix enabled they are deleted.
type OrphanCheck struct {
	fs   fsys.FS
	root string
	fix  bool
}

// NewOrphanCheck creates a new orphaned snapshot check over the history
// root directory.
func NewOrphanCheck(fs fsys.FS, root string, fix bool) *OrphanCheck {
	return &OrphanCheck{
		fs:   fs,
		root: root,
		fix:  fix,
	}
}

func (c *OrphanCheck) Name() string {
	return "Orphan Snapshots"
}

func (c *OrphanCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if _, err := os.Stat(c.root); os.IsNotExist(err) {
		result.Items = append(result.Items, CheckItem{
			Label:  "History directory",
			Status: StatusPass,
			Detail: "no history recorded yet",
		})
		return result
	}

	dirents, err := c.fs.ReadDir(c.root)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Read history directory",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	index := histdir.NewIndex(c.fs)

	orphanCount := 0
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}

		dir := filepath.Join(c.root, de.Name())
		orphans, err := c.findOrphans(index, dir)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  de.Name(),
				Status: StatusFail,
				Detail: err.Error(),
			})
			continue
		}

		for _, name := range orphans {
			orphanCount++
			result.Items = append(result.Items, c.handleOrphan(dir, name))
		}
	}

	if orphanCount == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "No orphans",
			Status: StatusPass,
			Detail: "every snapshot file is referenced by its index",
		})
	}

	return result
}

// findOrphans returns files in dir that the index does not reference.
// A missing or corrupt index means the files may still be recoverable by
// a directory scan, so nothing is reported as orphaned.
func (c *OrphanCheck) findOrphans(index *histdir.Index, dir string) ([]string, error) {
	descriptors, err := index.Load(dir)
	if err != nil {
		if errors.Is(err, histdir.ErrNotFound) || errors.Is(err, histdir.ErrCorrupt) {
			return nil, nil
		}
		return nil, err
	}

	referenced := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		referenced[d.ID] = true
	}

	dirents, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || name == histdir.IndexFile {
			continue
		}
		if strings.HasSuffix(name, ".tmp") || !referenced[name] {
			orphans = append(orphans, name)
		}
	}

	return orphans, nil
}

func (c *OrphanCheck) handleOrphan(dir, name string) CheckItem {
	path := filepath.Join(dir, name)

	if !c.fix {
		return CheckItem{
			Label:   name,
			Status:  StatusWarn,
			Detail:  "snapshot file not referenced by index",
			Fixable: true,
		}
	}

	if err := c.fs.Remove(path); err != nil {
		return CheckItem{
			Label:  name,
			Status: StatusFail,
			Detail: fmt.Sprintf("failed to delete: %v", err),
		}
	}

	return CheckItem{
		Label:  name,
		Status: StatusPass,
		Detail: "deleted orphaned snapshot",
	}
}
