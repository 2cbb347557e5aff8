/*
NAME
  watcher.go

DESCRIPTION
  watcher.go adds live engine-directory watching on top of ListEngines,
  using fsnotify the way cmd/speaker and the revid pipeline watch
  config and capture devices, so a host daemon can pick up engines
  installed or removed after it starts without polling.

LICENSE
  MIT
*/

package discovery

import (
	"github.com/fsnotify/fsnotify"
)

// Watcher notifies a callback whenever the set of engines in the
// watched directories may have changed.
type Watcher struct {
	fw   *fsnotify.Watcher
	dirs []string
}

// NewWatcher creates a Watcher over dirs. Directories that don't exist
// yet are skipped; callers that need them watched once created should
// recreate the Watcher after ListEngines observes the directory.
func NewWatcher(dirs []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fw: fw, dirs: dirs}
	for _, d := range dirs {
		// Best effort: a missing directory is not fatal, it simply isn't
		// watched until it exists.
		_ = fw.Add(d)
	}
	return w, nil
}

// Watch runs until stop is closed, calling onChange whenever a file is
// created, removed or renamed in a watched directory. onChange is
// expected to re-run ListEngines itself; the watcher only signals that
// something changed, not what.
func (w *Watcher) Watch(stop <-chan struct{}, onChange func()) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				onChange()
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fw.Close() }
