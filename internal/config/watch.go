package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"pageguard/internal/logging"
)

// Watch reloads the config file whenever it changes on disk and calls
// onChange with the fresh config. The storage facade probes configuration
// per call, so a remote database saved mid-session takes effect without a
// restart. The returned stop function releases the watcher.
//
// The parent directory is watched rather than the file itself: editors and
// Save both replace the file, which would otherwise drop the watch.
func Watch(path string, onChange func(*UserConfig)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logging.Boot("config reload failed: %v", err)
					continue
				}
				logging.Boot("config reloaded from %s", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Boot("config watcher error: %v", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
