// Package watch drives the indexer from filesystem notifications.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event before
// handing the accumulated batch to the indexer. Screenshot tools often write
// a file in several chunks; debouncing collapses those into one run.
const DefaultDebounce = 2 * time.Second

// BatchFunc receives the accumulated set of image paths once the debounce
// window closes.
type BatchFunc func(ctx context.Context, paths []string)

// Watcher observes the configured folders and batches image file events.
type Watcher struct {
	folders  []domain.ScanFolder
	debounce time.Duration
	onBatch  BatchFunc
}

// New creates a watcher. A non-positive debounce selects DefaultDebounce.
func New(folders []domain.ScanFolder, debounce time.Duration, onBatch BatchFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{folders: folders, debounce: debounce, onBatch: onBatch}
}

// Run blocks, dispatching debounced batches until the context is cancelled.
// It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	recursive := make(map[string]bool)
	for _, folder := range w.folders {
		if folder.Recursive {
			if err := watchTree(fw, folder.Path); err != nil {
				return err
			}
			recursive[filepath.Clean(folder.Path)] = true
			continue
		}
		if err := fw.Add(folder.Path); err != nil {
			return err
		}
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, relevant := w.classify(fw, event, recursive); relevant {
				pending[path] = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			pending = make(map[string]bool)
			w.onBatch(ctx, batch)
		}
	}
}

// classify decides whether an event should trigger indexing and returns the
// affected image path. New directories under a recursive root are added to
// the watch set as a side effect.
func (w *Watcher) classify(fw *fsnotify.Watcher, event fsnotify.Event, recursive map[string]bool) (string, bool) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return "", false
	}

	if event.Op.Has(fsnotify.Create) && underRecursiveRoot(event.Name, recursive) {
		// WalkDir errors here mean the directory vanished again; the next
		// event for it will retry.
		if err := watchTree(fw, event.Name); err == nil {
			logger.Debug("Watching new directory tree under %s", event.Name)
		}
	}

	if !domain.IsImagePath(event.Name) {
		return "", false
	}
	return event.Name, true
}

// watchTree registers path and every directory below it.
func watchTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}

func underRecursiveRoot(path string, recursive map[string]bool) bool {
	path = filepath.Clean(path)
	for root := range recursive {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
