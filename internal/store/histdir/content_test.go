package histdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/localhist/localhist/internal/core/fsys"
)

func TestContentStore_WriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resource")
	store := NewContentStore(fsys.OS{})

	location, err := store.WriteSnapshot(dir, "entry-1", []byte("hello"))
	if err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	if filepath.Dir(location) != dir {
		t.Errorf("location %q not under %q", location, dir)
	}
	if filepath.Base(location) != "entry-1" {
		t.Errorf("snapshot file = %q, want entry id", filepath.Base(location))
	}

	data, err := store.ReadSnapshot(location)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
}

func TestContentStore_WriteLeavesNoTempFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resource")
	store := NewContentStore(fsys.OS{})

	if _, err := store.WriteSnapshot(dir, "entry-1", []byte("x")); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}
}

func TestContentStore_Delete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resource")
	store := NewContentStore(fsys.OS{})

	location, err := store.WriteSnapshot(dir, "entry-1", []byte("x"))
	if err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	if err := store.DeleteSnapshot(location); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}

	if _, err := os.Stat(location); !os.IsNotExist(err) {
		t.Errorf("snapshot still exists after delete")
	}

	if err := store.DeleteSnapshot(location); !os.IsNotExist(err) {
		t.Errorf("second DeleteSnapshot = %v, want not-exist error", err)
	}
}
