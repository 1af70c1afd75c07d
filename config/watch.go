package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads path whenever it changes and hands the result to
// onChange. Editors usually replace the file rather than write it in
// place, so the watch covers the directory and filters on the name.
// The returned function stops the watcher.
func Watch(path string, log zerolog.Logger, onChange func(Settings)) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var pending <-chan time.Time
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Saves arrive as bursts of events; reload once per
				// burst.
				pending = time.After(reloadDebounce)
			case <-pending:
				pending = nil
				s, err := Load(path)
				if err != nil {
					log.Warn().Err(err).Msg("config reload failed, keeping previous settings")
					continue
				}
				log.Info().Str("path", path).Msg("config reloaded")
				onChange(s)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()
	return func() {
		w.Close()
		<-done
	}, nil
}
