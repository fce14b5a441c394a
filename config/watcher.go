package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of write events from editors that save in
// multiple steps.
const debounceDelay = 500 * time.Millisecond

// Watch watches a config file and invokes onChange with the freshly loaded
// config after each modification. Reload failures keep the previous config
// and are logged. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which would drop a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			cfg, err := LoadFromFile(path)
			if err != nil {
				logger.Warn("Config reload failed, keeping previous config",
					slog.String("path", path),
					slog.String("error", err.Error()))
				continue
			}
			if err := cfg.Validate(); err != nil {
				logger.Warn("Reloaded config invalid, keeping previous config",
					slog.String("path", path),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("Config reloaded", slog.String("path", path))
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", slog.String("error", err.Error()))
		}
	}
}
