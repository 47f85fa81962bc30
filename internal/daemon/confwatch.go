package daemon

import (
	"fmt"
	"path/filepath"
	"time"

	"fetcharr/internal/config"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigWatcher reloads the config and wakes the poller when the config
// file changes, so label-mapping edits apply without waiting out the
// recheck interval.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	poller  *Poller
	path    string
	log     *zap.Logger
}

func WatchConfig(path string, poller *Poller, log *zap.Logger) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory: editors replace the file on save, which drops
	// a watch placed on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}

	cw := &ConfigWatcher{
		watcher: w,
		poller:  poller,
		path:    filepath.Clean(path),
		log:     log,
	}

	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	// Saves arrive as bursts of events; collapse each burst into one
	// reload half a second after it quiets down.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(ev.Name) != cw.path {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(500 * time.Millisecond)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			cw.reload()
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := config.Load()
	if err != nil {
		cw.log.Warn("ignoring broken config change", zap.Error(err))
		return
	}

	cw.poller.Reload(cfg)
}

func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}
