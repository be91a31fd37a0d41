// Package watch observes the local workspace for changes made outside the
// editor (another program saving a file, a folder appearing) so the host
// can refresh its folder listing and warn about an externally modified
// open document.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/noam/updown/internal/checksum"
)

// Callback is invoked for each coalesced change batch. paths holds the
// affected file or directory paths, deduplicated.
type Callback func(paths []string)

const debounceInterval = 200 * time.Millisecond

// Watch starts an fsnotify watcher on root and processes change events
// until ctx is cancelled, invoking cb after each debounced batch. New
// directories created at runtime are added to the watch list.
//
// Only the local backend has a watchable medium; hosts running cloud or
// guest providers never start a watcher.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	sums := make(map[string]string)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounceInterval)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				if changed(p, sums) {
					paths = append(paths, p)
				}
			}
			pending = make(map[string]struct{})
			if len(paths) > 0 && cb != nil {
				cb(paths)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}

			pending[ev.Name] = struct{}{}
			scheduleFlush()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// changed reports whether p needs broadcasting, filtering out events that
// did not alter file content (metadata touches, editors rewriting a file
// with identical bytes). Directories, removals and unreadable paths always
// count as changed.
func changed(p string, sums map[string]string) bool {
	info, err := os.Stat(p)
	if err != nil {
		delete(sums, p)
		return true
	}
	if info.IsDir() {
		return true
	}
	data, err := os.ReadFile(p)
	if err != nil {
		delete(sums, p)
		return true
	}
	sum := checksum.Sum(data)
	if prev, ok := sums[p]; ok && prev == sum {
		return false
	}
	sums[p] = sum
	return true
}

// addDirsRecursive adds dir and every subdirectory to the watcher,
// skipping hidden directories.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != dir && len(name) > 0 && name[0] == '.' {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
