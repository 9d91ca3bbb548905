package tables

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay debounces bursts of write events from editors.
const DefaultReloadDelay = 250 * time.Millisecond

// Watch reloads path whenever it changes until ctx is done. The parent
// directory is watched so that atomic rename-style saves are seen too.
func (s *Store) Watch(ctx context.Context, path string, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve tables path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	s.logger.Info("Watching configuration tables", "path", abs)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			_ = s.LoadFile(abs)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("Tables watcher error", "error", err)
		}
	}
}
