package corpus

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"nyaymitra/internal/contextutil"
)

// Watcher re-reads the knowledge base whenever the file changes and publishes the new snapshot.
type Watcher struct {
	path     string
	onChange func(*Corpus)
}

// NewWatcher creates a watcher for path. onChange receives every freshly read corpus.
func NewWatcher(path string, onChange func(*Corpus)) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Run watches until ctx is cancelled. The parent directory is watched so that editors
// which replace the file (write to temp + rename) are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	logger.InfoContext(ctx, "watching knowledge base for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.InfoContext(ctx, "knowledge base changed", "op", event.Op.String())
			w.onChange(Read(ctx, w.path))
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}
