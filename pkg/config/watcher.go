package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk. It
// watches the containing directory rather than the file itself so editors
// that replace the file on save are picked up.
type Watcher struct {
	inner *fsnotify.Watcher
	done  chan struct{}
}

// Watch starts watching path. onChange receives every successfully loaded
// new config; onError receives load failures (the previous config stays
// in effect). Both callbacks run on the watcher's goroutine.
func Watch(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{inner: watcher, done: make(chan struct{})}
	go w.run(path, onChange, onError)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.inner.Close()
	<-w.done
	return err
}

func (w *Watcher) run(path string, onChange func(*Config), onError func(error)) {
	defer close(w.done)

	base := filepath.Base(path)
	for {
		select {
		case event, ok := <-w.inner.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(cfg)
		case _, ok := <-w.inner.Errors:
			if !ok {
				return
			}
		}
	}
}
