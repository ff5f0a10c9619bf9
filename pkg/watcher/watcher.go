// Package watcher emits coalesced change notifications for the mock root.
//
// The payload of a notification is deliberately empty: the reload
// coordinator always performs a full rescan, so all the consumer needs to
// know is "something changed". Notifications are coalesced into a channel
// of capacity one, which also guarantees that an event arriving during an
// in-progress rescan is retained rather than lost.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jakobwesthoff/blendwerk/pkg/logging"
)

// Watcher watches a directory tree recursively and coalesces filesystem
// events into change notifications.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan struct{}
	log    *slog.Logger
}

// New creates a Watcher over root and all of its current subdirectories.
func New(root string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Nop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:     fsw,
		events: make(chan struct{}, 1),
		log:    log,
	}

	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Events returns the notification channel. At most one notification is
// pending at a time; consumers re-arm their debounce timer on receive.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Run processes filesystem events until ctx is canceled. Directories
// created while running are added to the watch set so new mock folders
// take effect without a restart.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.log.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			w.notify()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("filesystem watcher error", "error", err)
		}
	}
}

// Close stops the underlying watcher and releases its resources.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// notify delivers one coalesced notification without ever blocking.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// addRecursive registers dir and every subdirectory with the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// The entry may have vanished between discovery and visit.
			return nil
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// relevant filters the event kinds that can change the compiled routes.
func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}
