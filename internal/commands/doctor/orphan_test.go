package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/history"
	"github.com/localhist/localhist/internal/store/histdir"
)

func writeResourceDir(t *testing.T, root, name string, indexed []history.Descriptor, extra []string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ix := histdir.NewIndex(fsys.OS{})
	if err := ix.Save(dir, indexed); err != nil {
		t.Fatalf("save index: %v", err)
	}

	for _, d := range indexed {
		if err := os.WriteFile(filepath.Join(dir, d.ID), []byte("x"), 0o644); err != nil {
			t.Fatalf("write snapshot: %v", err)
		}
	}
	for _, name := range extra {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write extra file: %v", err)
		}
	}

	return dir
}

func TestOrphanCheck_CleanStore(t *testing.T) {
	root := t.TempDir()
	writeResourceDir(t, root, "dir-a", []history.Descriptor{{ID: "a", Timestamp: 1}}, nil)

	result := NewOrphanCheck(fsys.OS{}, root, false).Run(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(result.Items))
	}
	if result.Items[0].Status != StatusPass {
		t.Errorf("status = %v, want pass", result.Items[0].Status)
	}
}

func TestOrphanCheck_ReportsOrphans(t *testing.T) {
	root := t.TempDir()
	writeResourceDir(t, root, "dir-a",
		[]history.Descriptor{{ID: "a", Timestamp: 1}},
		[]string{"stray", "a.tmp"},
	)

	result := NewOrphanCheck(fsys.OS{}, root, false).Run(context.Background())

	warns := 0
	for _, item := range result.Items {
		if item.Status == StatusWarn {
			warns++
			if !item.Fixable {
				t.Errorf("orphan %q not marked fixable", item.Label)
			}
		}
	}
	if warns != 2 {
		t.Errorf("got %d warnings, want 2", warns)
	}
}

func TestOrphanCheck_FixDeletesOrphans(t *testing.T) {
	root := t.TempDir()
	dir := writeResourceDir(t, root, "dir-a",
		[]history.Descriptor{{ID: "a", Timestamp: 1}},
		[]string{"stray"},
	)

	result := NewOrphanCheck(fsys.OS{}, root, true).Run(context.Background())

	for _, item := range result.Items {
		if item.Status == StatusFail {
			t.Errorf("fix failed: %s: %s", item.Label, item.Detail)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "stray")); !os.IsNotExist(err) {
		t.Error("orphan file still exists after fix")
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); err != nil {
		t.Error("indexed snapshot deleted by fix")
	}
}

func TestOrphanCheck_CorruptIndexLeavesFilesAlone(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "dir-a")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, histdir.IndexFile), []byte("{bad"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snap"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	result := NewOrphanCheck(fsys.OS{}, root, true).Run(context.Background())

	for _, item := range result.Items {
		if item.Status == StatusFail {
			t.Errorf("unexpected failure: %s: %s", item.Label, item.Detail)
		}
	}

	// Files behind a corrupt index are recoverable by scan, never orphans.
	if _, err := os.Stat(filepath.Join(dir, "snap")); err != nil {
		t.Error("recoverable snapshot deleted")
	}
}

func TestRegistryCheck_FixRemovesStaleRecords(t *testing.T) {
	root := t.TempDir()
	reg := histdir.NewRegistry(filepath.Join(root, "resources.json"))

	writeResourceDir(t, root, "dir-a", []history.Descriptor{{ID: "a", Timestamp: 1}}, nil)
	if err := reg.Put("dir-a", history.WorkingCopy{Resource: "/tmp/a.txt", Name: "a.txt"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := reg.Put("dir-gone", history.WorkingCopy{Resource: "/tmp/gone.txt", Name: "gone.txt"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	result := NewRegistryCheck(reg, root, true).Run(context.Background())
	for _, item := range result.Items {
		if item.Status == StatusFail {
			t.Errorf("fix failed: %s: %s", item.Label, item.Detail)
		}
	}

	records, err := reg.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records["dir-a"]; !ok {
		t.Error("live record removed")
	}
}
