package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch follows the session file for changes made by other processes, so a
// logout in one place takes effect everywhere on the next request. It blocks
// until ctx is cancelled.
//
// The parent directory is watched rather than the file itself because writes
// replace the file by rename.
func Watch(ctx context.Context, store *FileStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create session watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(store.Path())
	logger.Debug("watching session file", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			changed, err := store.Reload()
			if err != nil {
				logger.Warn("could not reload session file", "path", target, "error", err)
				continue
			}
			if changed {
				logger.Info("session changed by another process", "logged_in", store.Get().LoggedIn())
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("session watcher error", "error", err)
		}
	}
}
