package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the scenario file when it changes and hands the result to
// a callback. Editors write files in bursts, so events are debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(Scenario)
	stopChan chan struct{}
}

// Watch starts watching path. onChange runs on the watcher goroutine with
// each successfully re-validated scenario; invalid edits are logged and
// skipped so a half-saved file cannot take down a running simulation.
func Watch(path string, debounce time.Duration, onChange func(Scenario)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors often replace the file, which drops a
	// watch placed on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		watcher:  fw,
		path:     path,
		debounce: debounce,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}
	go w.loop()

	log.Printf("[ConfigWatcher] Watching %s (debounce: %v)", path, debounce)
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[ConfigWatcher] Watch error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		log.Printf("[ConfigWatcher] Ignoring invalid scenario update: %v", err)
		return
	}
	log.Printf("[ConfigWatcher] Scenario reloaded from %s", w.path)
	w.onChange(s)
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.watcher.Close()
}
