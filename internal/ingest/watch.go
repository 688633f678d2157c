package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the knowledge base in step with a directory: created or
// modified markdown files are re-indexed and removed ones deleted.
type Watcher struct {
	ix       *Indexer
	root     string
	defaults Defaults
	watcher  *fsnotify.Watcher
}

// NewWatcher registers root and every subdirectory for change events.
// Events are only processed once Run is called.
func (ix *Indexer) NewWatcher(root string, defaults Defaults) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	wt := &Watcher{ix: ix, root: root, defaults: defaults, watcher: w}
	if err := wt.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return wt, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run processes events until ctx is done, then releases the watcher.
// Per-file failures are logged and never end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.ix.log.Warn("WARNING: ingest: watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if event.Op&fsnotify.Create != 0 {
				if err := w.addTree(event.Name); err != nil {
					w.ix.log.Warn("WARNING: ingest: watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
		if !isMarkdown(event.Name) {
			return
		}
		if err := w.ix.IndexFile(ctx, w.root, event.Name, w.defaults); err != nil {
			w.ix.log.Warn("WARNING: ingest: reindex failed", zap.String("path", event.Name), zap.Error(err))
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if !isMarkdown(event.Name) {
			return
		}
		if err := w.ix.RemoveFile(ctx, w.root, event.Name); err != nil {
			w.ix.log.Warn("WARNING: ingest: remove failed", zap.String("path", event.Name), zap.Error(err))
		}
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
