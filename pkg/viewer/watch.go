package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path whenever it changes on disk until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename keep triggering reloads. A failed reload is logged and the
// previous scene stays; onReload, if non-nil, runs after every attempt.
func (v *Viewer) Watch(ctx context.Context, path string, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	v.logger().Debug("watching model", "path", abs)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDelay)
		case <-timer.C:
			err := v.Load(abs)
			if err != nil {
				v.logger().Error("reload failed, keeping previous model", "err", err)
			}
			if onReload != nil {
				onReload(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.logger().Error("model watcher error", "err", err)
		}
	}
}
