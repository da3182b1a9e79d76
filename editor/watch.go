package editor

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"

	"zte/log"
)

const watchDebounce = 100 * time.Millisecond

// FileEvent carries a change to an open file into the event loop.
type FileEvent struct {
	tcell.EventTime
	Path string
	Op   fsnotify.Op
}

// Watcher reports changes to the files of open buffers. It watches their
// directories so saves that replace the file are still seen.
type Watcher struct {
	fs   *fsnotify.Watcher
	post func(tcell.Event) error

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
	done  chan struct{}
}

func NewWatcher(post func(tcell.Event) error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:    fw,
		post:  post,
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch starts reporting changes to path.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files[path] = true
	dir := filepath.Dir(path)
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	log.Debug(log.CatWatcher, "watching", "dir", dir)
	return nil
}

func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	delete(w.files, path)
	w.mu.Unlock()
}

func (w *Watcher) wanted(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path]
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

// loop collects events and forwards them once the directory has been
// quiet for watchDebounce. Repeated events for one file collapse into one.
func (w *Watcher) loop() {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	pending := make(map[string]fsnotify.Op)
	var order []string

	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.wanted(ev.Name) {
				continue
			}
			if _, seen := pending[ev.Name]; !seen {
				order = append(order, ev.Name)
			}
			pending[ev.Name] |= ev.Op
			timer.Reset(watchDebounce)
		case <-timer.C:
			for _, path := range order {
				fe := &FileEvent{Path: path, Op: pending[path]}
				fe.SetEventNow()
				if err := w.post(fe); err != nil {
					log.Warn(log.CatWatcher, "dropped file event", "path", path, "error", err)
				}
			}
			clear(pending)
			order = order[:0]
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)
		}
	}
}
