package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localhist/localhist/internal/store/histdir"
)

// RegistryCheck detects registry records whose history directory is gone,
// e.g. after manual deletion under the history root. Stale records make
// listing slower but are otherwise harmless; with fix enabled they are
// removed.
type RegistryCheck struct {
	registry *histdir.Registry
	root     string
	fix      bool
}

// NewRegistryCheck creates a new stale registry record check.
func NewRegistryCheck(registry *histdir.Registry, root string, fix bool) *RegistryCheck {
	return &RegistryCheck{
		registry: registry,
		root:     root,
		fix:      fix,
	}
}

func (c *RegistryCheck) Name() string {
	return "Resource Registry"
}

func (c *RegistryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	records, err := c.registry.All()
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Read registry",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	stale := 0
	for dir, wc := range records {
		if _, err := os.Stat(filepath.Join(c.root, dir)); !os.IsNotExist(err) {
			continue
		}
		stale++

		if !c.fix {
			result.Items = append(result.Items, CheckItem{
				Label:   wc.Name,
				Status:  StatusWarn,
				Detail:  "registry record without history directory",
				Fixable: true,
			})
			continue
		}

		if err := c.registry.Remove(dir); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  wc.Name,
				Status: StatusFail,
				Detail: fmt.Sprintf("failed to remove record: %v", err),
			})
			continue
		}

		result.Items = append(result.Items, CheckItem{
			Label:  wc.Name,
			Status: StatusPass,
			Detail: "removed stale registry record",
		})
	}

	if stale == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "No stale records",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d record(s) all have history directories", len(records)),
		})
	}

	return result
}
