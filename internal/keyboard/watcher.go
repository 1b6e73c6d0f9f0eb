package keyboard

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadCallback is called after the watcher swapped in a changed set file.
type ReloadCallback func(sets []Set)

// Watch watches the catalog's file and reloads it on change until ctx is
// cancelled. The parent directory is watched rather than the file so that
// editors replacing the file by rename are picked up. Bursts of events are
// debounced into one reload.
func Watch(ctx context.Context, c *Catalog, logger *slog.Logger, cb ReloadCallback) error {
	if c.path == "" {
		<-ctx.Done()
		return nil
	}

	target, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	logger.Info("keyboard watcher: started", slog.String("path", target))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("keyboard watcher: stopped")
			return nil

		case <-timerCh:
			changed, err := c.Reload()
			if err != nil {
				logger.Warn("keyboard watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if changed && cb != nil {
				cb(c.Sets())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("keyboard watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
