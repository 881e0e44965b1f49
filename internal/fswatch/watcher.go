// Package fswatch reloads on-disk tables (label files, the drill catalog)
// when they change.
package fswatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called with the absolute path of a watched file after
// it was written, created or renamed into place.
type ChangeHandler func(path string)

// Watcher watches individual files by watching their directories, since
// editors often replace a file rather than write it in place.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ChangeHandler
	log      *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	files    map[string]bool
	dirs     map[string]bool
	matchDir map[string]func(string) bool
	timers   map[string]*time.Timer
	done     chan struct{}
}

// New starts a watcher. Events for the same path that arrive within
// debounce of each other are collapsed into one call.
func New(onChange ChangeHandler, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		log:      log,
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		matchDir: make(map[string]func(string) bool),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// WatchFile reports changes to a single file.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	return w.addDir(filepath.Dir(abs))
}

// WatchDir reports changes to every file in dir accepted by match. A nil
// match accepts everything.
func (w *Watcher) WatchDir(dir string, match func(name string) bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	w.mu.Lock()
	w.matchDir[abs] = match
	w.mu.Unlock()
	return w.addDir(abs)
}

func (w *Watcher) addDir(dir string) error {
	w.mu.Lock()
	seen := w.dirs[dir]
	w.dirs[dir] = true
	w.mu.Unlock()
	if seen {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// Close stops the watcher and any pending debounced calls.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return true
	}
	if match, ok := w.matchDir[filepath.Dir(path)]; ok {
		return match(filepath.Base(path))
	}
	return false
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if w.watched(abs) {
				w.fire(abs)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) fire(path string) {
	if w.debounce <= 0 {
		w.onChange(path)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.onChange(path)
	})
}
