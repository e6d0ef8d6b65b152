// Package watch drives incremental recompilation from filesystem change
// notifications (spec §4.4 "incremental updates"), debouncing bursts of
// writes from editors/formatters into a single reparse per file.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"beliefgraph/diagnostics"
)

// Reparser is the subset of driver.Driver the watcher needs, kept
// narrow so tests can substitute a fake.
type Reparser interface {
	ReparseFile(ctx context.Context, relPath string) ([]diagnostics.Diagnostic, error)
}

// Watcher recursively watches a root directory and debounces change
// events before triggering a reparse.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      *zap.Logger
}

// New constructs a Watcher rooted at root, adding every directory in
// the tree to the underlying fsnotify watch list (fsnotify has no
// recursive mode of its own).
func New(root string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, debounce: debounce, fsw: fsw, log: log}
	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	}); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks, debouncing change events per relative path and calling
// reparser.ReparseFile once the debounce window elapses quietly.
// Returns when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, reparser Reparser) error {
	defer w.fsw.Close()

	pending := make(map[string]*time.Timer)
	fire := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			if t, exists := pending[rel]; exists {
				t.Stop()
			}
			pending[rel] = time.AfterFunc(w.debounce, func() { fire <- rel })

		case rel := <-fire:
			delete(pending, rel)
			if _, err := reparser.ReparseFile(ctx, rel); err != nil && w.log != nil {
				w.log.Error("reparse failed", zap.String("path", rel), zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if w.log != nil {
				w.log.Error("watcher error", zap.Error(err))
			}
		}
	}
}
