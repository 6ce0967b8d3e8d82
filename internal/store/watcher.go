package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 120 * time.Millisecond

// Watcher reports changes made to content directories outside the API, such
// as an editor saving a file by hand.
type Watcher struct {
	dirs     []string
	onChange func()
	logger   *zap.Logger
	debounce time.Duration
}

// NewWatcher creates a Watcher over dirs (and their subdirectories). onChange
// runs once per burst of filesystem events.
func NewWatcher(dirs []string, onChange func(), logger *zap.Logger) *Watcher {
	return &Watcher{
		dirs:     dirs,
		onChange: onChange,
		logger:   logger,
		debounce: defaultDebounce,
	}
}

// Run watches until ctx is cancelled. Directories that do not exist yet are
// skipped; directories created later under a watched one are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, dir := range w.dirs {
		w.addTree(watcher, dir)
	}

	var (
		pending     bool
		pendingFrom time.Time
	)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if pending && time.Since(pendingFrom) >= w.debounce {
				pending = false
				w.onChange()
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(watcher, event.Name)
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				pending = true
				pendingFrom = time.Now()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content watcher error", zap.Error(watchErr))
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("dir", p), zap.Error(err))
			return nil
		}
		w.logger.Debug("watching directory", zap.String("dir", p))
		return nil
	})
}
