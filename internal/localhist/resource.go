package localhist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/history"
	"github.com/localhist/localhist/internal/store/histdir"
)

// resourceHistory is the in-memory model of one resource's history.
//
// It starts unloaded; entries added before the first load sit in a pending
// buffer and are merged with the persisted entries the first time any
// operation needs the full view. After loading, the entry sequence is the
// authoritative superset of disk and memory, ordered ascending by
// timestamp with ties keeping insertion order.
//
// Not safe for concurrent use: the service gates one operation per
// resource.
type resourceHistory struct {
	wc      history.WorkingCopy
	dir     string
	content *histdir.ContentStore
	index   *histdir.Index
	fs      fsys.FS
	log     zerolog.Logger

	loaded  bool
	dirty   bool
	entries []*history.Entry
	pending []*history.Entry
}

func newResourceHistory(
	wc history.WorkingCopy,
	dir string,
	content *histdir.ContentStore,
	index *histdir.Index,
	filesystem fsys.FS,
	log zerolog.Logger,
) *resourceHistory {
	return &resourceHistory{
		wc:      wc,
		dir:     dir,
		content: content,
		index:   index,
		fs:      filesystem,
		log:     log,
	}
}

// addEntry writes a snapshot and records the entry in timestamp order.
// Write failures leave no partial state: the entry is only recorded after
// the snapshot is durable.
func (h *resourceHistory) addEntry(source string, timestamp int64, data []byte) (*history.Entry, error) {
	id := uuid.NewString()

	location, err := h.content.WriteSnapshot(h.dir, id, data)
	if err != nil {
		return nil, err
	}

	entry := &history.Entry{
		ID:          id,
		Timestamp:   timestamp,
		Source:      source,
		WorkingCopy: h.wc,
		Location:    location,
	}

	if h.loaded {
		h.entries = insertByTimestamp(h.entries, entry)
	} else {
		h.pending = append(h.pending, entry)
	}
	h.dirty = true

	return entry, nil
}

// updateEntry relabels an existing entry in place. Unknown ids are a
// silent no-op.
func (h *resourceHistory) updateEntry(id, source string) (*history.Entry, bool) {
	h.ensureLoaded()

	for _, e := range h.entries {
		if e.ID == id {
			e.Source = source
			h.dirty = true
			return e, true
		}
	}

	return nil, false
}

// removeEntry deletes the entry's snapshot and descriptor. Returns the
// removed entry and whether anything was removed; removing the same id
// twice reports false the second time.
func (h *resourceHistory) removeEntry(id string) (*history.Entry, bool) {
	h.ensureLoaded()

	for i, e := range h.entries {
		if e.ID != id {
			continue
		}

		if err := h.content.DeleteSnapshot(e.Location); err != nil && !os.IsNotExist(err) {
			h.log.Warn().Err(err).Str("location", e.Location).Msg("snapshot delete failed, leaving orphaned file")
		}

		h.entries = append(h.entries[:i], h.entries[i+1:]...)
		h.dirty = true
		return e, true
	}

	return nil, false
}

// removeAll deletes every snapshot and the index file.
func (h *resourceHistory) removeAll() error {
	if err := h.fs.RemoveAll(h.dir); err != nil {
		return fmt.Errorf("remove resource directory: %w", err)
	}

	h.loaded = true
	h.entries = nil
	h.pending = nil
	h.dirty = false

	return nil
}

// getEntries returns the full ordered sequence. The slice is a copy;
// callers must not mutate the entries.
func (h *resourceHistory) getEntries() []*history.Entry {
	h.ensureLoaded()
	return append([]*history.Entry(nil), h.entries...)
}

// evictToLimit deletes the oldest entries beyond max. A limit of zero or
// less disables eviction. Only invoked explicitly (shutdown or prune),
// never on addEntry.
func (h *resourceHistory) evictToLimit(max int) {
	if max <= 0 {
		return
	}

	h.ensureLoaded()

	excess := len(h.entries) - max
	if excess <= 0 {
		return
	}

	for _, e := range h.entries[:excess] {
		if err := h.content.DeleteSnapshot(e.Location); err != nil && !os.IsNotExist(err) {
			h.log.Warn().Err(err).Str("location", e.Location).Msg("snapshot delete failed, leaving orphaned file")
		}
	}

	h.entries = append([]*history.Entry(nil), h.entries[excess:]...)
	h.dirty = true

	h.log.Debug().Str("resource", h.wc.Resource).Int("evicted", excess).Msg("history evicted to limit")
}

// flushIfDirty persists the index if anything changed since the last
// flush. Idempotent.
func (h *resourceHistory) flushIfDirty() error {
	if !h.dirty {
		return nil
	}

	// Pending entries flush through the merged sequence.
	h.ensureLoaded()

	descriptors := make([]history.Descriptor, 0, len(h.entries))
	for _, e := range h.entries {
		descriptors = append(descriptors, e.Descriptor())
	}

	if err := h.index.Save(h.dir, descriptors); err != nil {
		return err
	}

	h.dirty = false
	return nil
}

// ensureLoaded reconciles the in-memory view with disk exactly once.
// Index corruption or absence degrades to a directory scan; entries whose
// snapshot file is gone are dropped. Pending entries are merged in
// timestamp order, winning over disk records with the same id.
func (h *resourceHistory) ensureLoaded() {
	if h.loaded {
		return
	}

	var entries []*history.Entry

	descriptors, err := h.index.Load(h.dir)
	switch {
	case err == nil:
		for _, d := range descriptors {
			location := filepath.Join(h.dir, d.ID)
			if _, statErr := h.fs.Stat(location); statErr != nil {
				// An entry without content is not observable.
				h.dirty = true
				continue
			}
			entries = append(entries, &history.Entry{
				ID:          d.ID,
				Timestamp:   d.Timestamp,
				Source:      d.Source,
				WorkingCopy: h.wc,
				Location:    location,
			})
		}

	case errors.Is(err, histdir.ErrNotFound), errors.Is(err, histdir.ErrCorrupt):
		if errors.Is(err, histdir.ErrCorrupt) {
			h.log.Warn().Str("dir", h.dir).Msg("index unreadable, rebuilding from directory scan")
		}
		entries = h.scanSnapshots()
		if len(entries) > 0 {
			h.dirty = true
		}

	default:
		h.log.Warn().Err(err).Str("dir", h.dir).Msg("index load failed, treating history as empty")
	}

	if len(h.pending) > 0 {
		pendingIDs := make(map[string]struct{}, len(h.pending))
		for _, p := range h.pending {
			pendingIDs[p.ID] = struct{}{}
		}

		deduped := entries[:0]
		for _, e := range entries {
			if _, ok := pendingIDs[e.ID]; ok {
				continue
			}
			deduped = append(deduped, e)
		}
		entries = deduped

		for _, p := range h.pending {
			entries = insertByTimestamp(entries, p)
		}
		h.pending = nil
	}

	h.entries = entries
	h.loaded = true
}

// scanSnapshots rebuilds entries from file presence when the index is
// unusable. Timestamps are synthesized from file modification times, so
// recorded source labels and exact ordering fidelity are lost.
func (h *resourceHistory) scanSnapshots() []*history.Entry {
	dirents, err := h.fs.ReadDir(h.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			h.log.Warn().Err(err).Str("dir", h.dir).Msg("directory scan failed")
		}
		return nil
	}

	type candidate struct {
		name string
		mod  time.Time
	}

	candidates := make([]candidate, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || name == histdir.IndexFile || strings.HasSuffix(name, ".tmp") {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, mod: info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod.Equal(candidates[j].mod) {
			return candidates[i].name < candidates[j].name
		}
		return candidates[i].mod.Before(candidates[j].mod)
	})

	entries := make([]*history.Entry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, &history.Entry{
			ID:          c.name,
			Timestamp:   c.mod.UnixMilli(),
			WorkingCopy: h.wc,
			Location:    filepath.Join(h.dir, c.name),
		})
	}

	return entries
}

// insertByTimestamp inserts the entry keeping ascending timestamp order.
// Equal timestamps keep insertion order.
func insertByTimestamp(entries []*history.Entry, entry *history.Entry) []*history.Entry {
	at := sort.Search(len(entries), func(i int) bool {
		return entries[i].Timestamp > entry.Timestamp
	})

	entries = append(entries, nil)
	copy(entries[at+1:], entries[at:])
	entries[at] = entry
	return entries
}
