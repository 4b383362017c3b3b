package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// Watcher invalidates a Library whenever a markdown file under its root changes.
type Watcher struct {
	lib     *Library
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewWatcher watches the library root and its content directories.
func NewWatcher(lib *Library, logger *zap.Logger) (*Watcher, error) {
	if lib == nil {
		return nil, errors.New("content watcher: library is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{lib: lib, watcher: fw, logger: observability.OrNop(logger)}
	if err := fw.Add(lib.Dir()); err != nil {
		_ = fw.Close()
		return nil, err
	}
	for _, dir := range []string{MethodsDir, SectionsDir, PagesDir} {
		w.addDir(filepath.Join(lib.Dir(), dir))
	}
	return w, nil
}

func (w *Watcher) addDir(dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("content watcher: add dir", zap.String("dir", dir), zap.Error(err))
	}
}

// Run processes file events until ctx is cancelled, then closes the underlying watcher.
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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// a content directory created after start-up
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
			w.lib.Invalidate()
			return
		}
	}
	if !markdownExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	w.lib.Invalidate()
}
