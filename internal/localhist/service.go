// Package localhist implements the local version history service: per-save
// immutable snapshots of tracked files, kept under one directory per
// resource with a JSON metadata index.
package localhist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/localhist/localhist/internal/core/config"
	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/history"
	"github.com/localhist/localhist/internal/core/ident"
	"github.com/localhist/localhist/internal/core/lifecycle"
	"github.com/localhist/localhist/internal/store/histdir"
)

// EntryDescriptor carries the caller-supplied attributes of a new entry.
// Zero values get defaults: Name from the resource path, Timestamp from
// the wall clock.
type EntryDescriptor struct {
	Resource  string
	Name      string
	Source    string
	Timestamp int64
}

// Service is the working copy history store. All operations on the same
// resource are serialized; different resources proceed concurrently.
type Service struct {
	root     string
	settings config.Settings
	fs       fsys.FS
	matcher  *ident.Matcher
	content  *histdir.ContentStore
	index    *histdir.Index
	registry *histdir.Registry
	bus      *history.Bus
	log      zerolog.Logger

	mu        sync.Mutex
	histories map[string]*resourceHistory
	gate      *gate
}

// New creates a history service storing under root (the history
// directory, one subdirectory per resource).
func New(root string, settings config.Settings, filesystem fsys.FS, matcher *ident.Matcher, log zerolog.Logger) *Service {
	return &Service{
		root:      root,
		settings:  settings,
		fs:        filesystem,
		matcher:   matcher,
		content:   histdir.NewContentStore(filesystem),
		index:     histdir.NewIndex(filesystem),
		registry:  histdir.NewRegistry(filepath.Join(root, "resources.json")),
		bus:       history.NewBus(),
		log:       log.With().Str("component", "history-service").Logger(),
		histories: make(map[string]*resourceHistory),
		gate:      newGate(),
	}
}

// Subscribe returns a channel of history change events and a cancel
// function releasing the subscription.
func (s *Service) Subscribe() (<-chan history.Event, func()) {
	return s.bus.Subscribe()
}

// resolve returns the in-memory history for a working copy, creating it
// on first use.
func (s *Service) resolve(wc history.WorkingCopy) *resourceHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[wc.Resource]
	if !ok {
		if wc.Name == "" {
			wc.Name = filepath.Base(ident.Path(wc.Resource))
		}
		dir := filepath.Join(s.root, ident.DirName(wc.Resource))
		h = newResourceHistory(wc, dir, s.content, s.index, s.fs, s.log)
		s.histories[wc.Resource] = h
	}
	return h
}

// AddEntry snapshots the working copy's current content and records a new
// entry. Unsupported resources and requests cancelled before admission
// return (nil, nil): no entry, no error. Once the snapshot write has
// begun the entry commits regardless of later cancellation.
func (s *Service) AddEntry(ctx context.Context, desc EntryDescriptor) (*history.Entry, error) {
	if !s.matcher.Supported(desc.Resource) {
		return nil, nil
	}

	if err := s.gate.acquire(ctx, desc.Resource); err != nil {
		return nil, nil
	}
	defer s.gate.release(desc.Resource)

	data, err := s.fs.ReadFile(ident.Path(desc.Resource))
	if err != nil {
		return nil, fmt.Errorf("read working copy: %w", err)
	}

	wc := history.WorkingCopy{Resource: desc.Resource, Name: desc.Name}
	if wc.Name == "" {
		wc.Name = filepath.Base(ident.Path(desc.Resource))
	}

	timestamp := desc.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	h := s.resolve(wc)
	entry, err := h.addEntry(desc.Source, timestamp, data)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Put(ident.DirName(wc.Resource), wc); err != nil {
		s.log.Warn().Err(err).Str("resource", wc.Resource).Msg("registry update failed")
	}

	s.log.Debug().Str("resource", wc.Resource).Str("id", entry.ID).Msg("history entry added")
	s.bus.Publish(history.Event{Kind: history.EventEntryAdded, Entry: entry})

	return entry, nil
}

// UpdateEntry changes an entry's source label. Updating an entry that no
// longer exists is a no-op.
func (s *Service) UpdateEntry(ctx context.Context, resource, id, source string) error {
	if err := s.gate.acquire(ctx, resource); err != nil {
		return nil
	}
	defer s.gate.release(resource)

	h := s.resolve(history.WorkingCopy{Resource: resource})
	entry, ok := h.updateEntry(id, source)
	if !ok {
		return nil
	}

	s.bus.Publish(history.Event{Kind: history.EventEntryChanged, Entry: entry})
	return nil
}

// RemoveEntry deletes one entry and its snapshot. Reports whether an
// entry was removed; removing an unknown id is not an error.
func (s *Service) RemoveEntry(ctx context.Context, resource, id string) (bool, error) {
	if err := s.gate.acquire(ctx, resource); err != nil {
		return false, nil
	}
	defer s.gate.release(resource)

	h := s.resolve(history.WorkingCopy{Resource: resource})
	entry, ok := h.removeEntry(id)
	if !ok {
		return false, nil
	}

	s.bus.Publish(history.Event{Kind: history.EventEntryRemoved, Entry: entry})
	return true, nil
}

// RemoveResource deletes the whole history of one resource: every entry,
// its snapshots, and its registry record.
func (s *Service) RemoveResource(ctx context.Context, resource string) error {
	if err := s.gate.acquire(ctx, resource); err != nil {
		return err
	}
	defer s.gate.release(resource)

	h := s.resolve(history.WorkingCopy{Resource: resource})
	entries := h.getEntries()

	if err := h.removeAll(); err != nil {
		return err
	}

	if err := s.registry.Remove(ident.DirName(resource)); err != nil {
		s.log.Warn().Err(err).Str("resource", resource).Msg("registry update failed")
	}

	for _, e := range entries {
		s.bus.Publish(history.Event{Kind: history.EventEntryRemoved, Entry: e})
	}

	return nil
}

// RemoveAll deletes the history of every tracked resource and clears the
// registry.
func (s *Service) RemoveAll(ctx context.Context) error {
	known, err := s.knownWorkingCopies()
	if err != nil {
		return err
	}

	var errs []error
	for _, wc := range known {
		if err := s.gate.acquire(ctx, wc.Resource); err != nil {
			return err
		}
		h := s.resolve(wc)
		if err := h.removeAll(); err != nil {
			errs = append(errs, err)
		}
		s.gate.release(wc.Resource)
	}

	// Sweep directories with no registry record (e.g. after registry
	// corruption) so RemoveAll always leaves an empty store.
	if dirents, err := s.fs.ReadDir(s.root); err == nil {
		for _, de := range dirents {
			if !de.IsDir() {
				continue
			}
			if err := s.fs.RemoveAll(filepath.Join(s.root, de.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := s.registry.Clear(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.bus.Publish(history.Event{Kind: history.EventRemovedAll})
	return nil
}

// Entries returns the ordered entries of one resource, oldest first.
// Unsupported or untracked resources yield an empty slice.
func (s *Service) Entries(ctx context.Context, resource string) ([]*history.Entry, error) {
	if !s.matcher.Supported(resource) {
		return nil, nil
	}

	if err := s.gate.acquire(ctx, resource); err != nil {
		return nil, err
	}
	defer s.gate.release(resource)

	h := s.resolve(history.WorkingCopy{Resource: resource})
	return h.getEntries(), nil
}

// EntryContent returns the snapshot content of one entry. Returns
// history.ErrNotFound if the entry or its snapshot file is missing.
func (s *Service) EntryContent(ctx context.Context, resource, id string) ([]byte, error) {
	if err := s.gate.acquire(ctx, resource); err != nil {
		return nil, err
	}
	defer s.gate.release(resource)

	h := s.resolve(history.WorkingCopy{Resource: resource})
	for _, e := range h.getEntries() {
		if e.ID != id {
			continue
		}
		data, err := s.content.ReadSnapshot(e.Location)
		if err != nil {
			if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
				return nil, history.ErrNotFound
			}
			return nil, err
		}
		return data, nil
	}

	return nil, history.ErrNotFound
}

// All returns every working copy that currently has at least one entry,
// sorted by resource. Resources recorded by earlier processes are found
// through the registry.
func (s *Service) All(ctx context.Context) ([]history.WorkingCopy, error) {
	known, err := s.knownWorkingCopies()
	if err != nil {
		return nil, err
	}

	var result []history.WorkingCopy
	for _, wc := range known {
		if err := s.gate.acquire(ctx, wc.Resource); err != nil {
			return nil, err
		}
		h := s.resolve(wc)
		count := len(h.getEntries())
		s.gate.release(wc.Resource)

		if count > 0 {
			result = append(result, wc)
		}
	}

	return result, nil
}

// Compact applies the retention limit to every tracked resource and
// flushes changed indexes. The limit is read fresh so config edits apply
// without restart.
func (s *Service) Compact(ctx context.Context) error {
	max := s.settings.MaxFileEntries()

	known, err := s.knownWorkingCopies()
	if err != nil {
		return err
	}

	var errs []error
	for _, wc := range known {
		if err := s.gate.acquire(ctx, wc.Resource); err != nil {
			return err
		}
		h := s.resolve(wc)
		h.evictToLimit(max)
		if err := h.flushIfDirty(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", wc.Resource, err))
		}
		s.gate.release(wc.Resource)
	}

	return errors.Join(errs...)
}

// RegisterShutdown hooks retention and index flushing into process
// shutdown. Eviction happens here, not on every add.
func (s *Service) RegisterShutdown(coordinator *lifecycle.Coordinator) {
	coordinator.RegisterWillShutdown(func(ctx context.Context) error {
		return s.Compact(ctx)
	})
}

// Close shuts down the event bus. In-flight operations are unaffected.
func (s *Service) Close() {
	s.bus.Close()
}

// knownWorkingCopies merges the persisted registry with resources touched
// in this process, sorted by resource for stable iteration.
func (s *Service) knownWorkingCopies() ([]history.WorkingCopy, error) {
	registered, err := s.registry.All()
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	merged := make(map[string]history.WorkingCopy, len(registered))
	for _, wc := range registered {
		merged[wc.Resource] = wc
	}

	s.mu.Lock()
	for resource, h := range s.histories {
		if _, ok := merged[resource]; !ok {
			merged[resource] = h.wc
		}
	}
	s.mu.Unlock()

	result := make([]history.WorkingCopy, 0, len(merged))
	for _, wc := range merged {
		result = append(result, wc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Resource < result[j].Resource })

	return result, nil
}
