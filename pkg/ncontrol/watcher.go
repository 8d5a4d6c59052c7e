package ncontrol

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses bursts of file events into one reload.
const DefaultWatchDebounce = 300 * time.Millisecond

// fileWatcher reports changes to a set of files. It watches their
// directories so editors that save by renaming are still seen.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
}

func newFileWatcher(paths []string, debounce time.Duration) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fw := &fileWatcher{watcher: w, files: make(map[string]bool), debounce: debounce}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// relevant reports whether ev changes one of the watched files.
func (fw *fileWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && fw.files[abs]
}

// run calls onChange once per debounced burst until ctx is done. The
// watcher is closed on return.
func (fw *fileWatcher) run(ctx context.Context, onChange func(), onError func(error)) {
	defer fw.watcher.Close()

	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.relevant(ev) {
				timer.Reset(fw.debounce)
			}
		case <-timer.C:
			onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
