package histdir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/history"
)

func TestIndex_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resource")
	ix := NewIndex(fsys.OS{})

	descriptors := []history.Descriptor{
		{ID: "a", Timestamp: 100, Source: "save"},
		{ID: "b", Timestamp: 200},
	}

	if err := ix.Save(dir, descriptors); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := ix.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Load returned %d descriptors, want 2", len(loaded))
	}
	if loaded[0].ID != "a" || loaded[1].ID != "b" {
		t.Errorf("order = %q, %q, want a, b", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Source != "save" {
		t.Errorf("Source = %q, want %q", loaded[0].Source, "save")
	}
	if loaded[1].Source != "" {
		t.Errorf("Source = %q, want empty", loaded[1].Source)
	}
}

func TestIndex_LoadMissing(t *testing.T) {
	ix := NewIndex(fsys.OS{})

	_, err := ix.Load(filepath.Join(t.TempDir(), "nothing-here"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestIndex_LoadCorrupt(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "truncated json", data: `[{"id":"a","time`},
		{name: "empty file", data: ""},
		{name: "wrong shape", data: `{"id":"a"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte(tc.data), 0o644); err != nil {
				t.Fatalf("write index: %v", err)
			}

			_, err := NewIndex(fsys.OS{}).Load(dir)
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestIndex_SaveNilWritesEmptyList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resource")
	ix := NewIndex(fsys.OS{})

	if err := ix.Save(dir, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("index content = %q, want %q", data, "[]")
	}

	loaded, err := ix.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Load returned %d descriptors, want 0", len(loaded))
	}
}

func TestIndex_Delete(t *testing.T) {
	dir := t.TempDir()
	ix := NewIndex(fsys.OS{})

	if err := ix.Save(dir, []history.Descriptor{{ID: "a", Timestamp: 1}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := ix.Delete(dir); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Deleting again is not an error.
	if err := ix.Delete(dir); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}

	if _, err := ix.Load(dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Delete = %v, want ErrNotFound", err)
	}
}
