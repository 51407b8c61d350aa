package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-applies the settings file at path whenever it is written or
// recreated. The parent directory is watched so editors that replace the
// file atomically are handled. Watch blocks until ctx is cancelled and
// returns nil in that case.
//
// Decode errors during a reload are logged and the previous values kept.
func (s *Store) Watch(ctx context.Context, path string) error {
	if _, err := FormatFor(path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("settings: resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.LoadFile(abs); err != nil {
				slogger().Warn("settings: reload failed", "path", abs, "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slogger().Warn("settings: watcher error", "err", err)
		}
	}
}
