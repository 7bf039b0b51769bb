// Package watcher records history entries in response to filesystem
// writes, debounced per file so editor save bursts produce one entry.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/localhist/localhist/internal/localhist"
)

// Watcher tails a set of directories and snapshots files after writes.
type Watcher struct {
	service  *localhist.Service
	paths    []string
	debounce time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over the given paths. Files get a history entry
// once writes have been quiet for the debounce window.
func New(service *localhist.Service, paths []string, debounce time.Duration, log zerolog.Logger) *Watcher {
	return &Watcher{
		service:  service,
		paths:    paths,
		debounce: debounce,
		log:      log.With().Str("component", "watcher").Logger(),
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. Directories created under a
// watched path while running are picked up as their events arrive.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close() //nolint:errcheck

	for _, root := range w.paths {
		if err := w.addRecursive(fw, root); err != nil {
			return err
		}
	}

	w.log.Info().Strs("paths", w.paths).Dur("debounce", w.debounce).Msg("watching for file changes")

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("fs watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, event.Name); err != nil {
				w.log.Warn().Err(err).Str("path", event.Name).Msg("watch new directory failed")
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule arms or extends the per-file debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		w.record(ctx, path)
	})
}

func (w *Watcher) record(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	entry, err := w.service.AddEntry(ctx, localhist.EntryDescriptor{
		Resource: path,
		Source:   "watch",
	})
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("record history entry failed")
		return
	}
	if entry != nil {
		w.log.Info().Str("path", path).Str("id", entry.ID).Msg("history entry recorded")
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}
