package oracle

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches workspace roots for source changes and invalidates the
// corresponding analyzer session, so the next query sees fresh state.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	registry  *Registry
	done      chan struct{}

	mu         sync.RWMutex
	workspaces map[string]struct{}

	debounceMu sync.Mutex
	debounce   map[string]*time.Timer
}

// NewWatcher creates a watcher bound to a registry.
func NewWatcher(registry *Registry) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:  fsWatcher,
		registry:   registry,
		done:       make(chan struct{}),
		workspaces: make(map[string]struct{}),
		debounce:   make(map[string]*time.Timer),
	}
	go w.processEvents()
	return w, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

// WatchWorkspace adds a workspace root to be watched.
func (w *Watcher) WatchWorkspace(workspace string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.workspaces[workspace]; ok {
		return nil
	}
	if err := w.fsWatcher.Add(workspace); err != nil {
		return err
	}
	w.workspaces[workspace] = struct{}{}
	log.Printf("[watcher] watching workspace %s", workspace)
	return nil
}

// processEvents handles file system events until Stop is called.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

// handleEvent debounces relevant events per workspace. Write, create, and
// rename all count: atomic writes (write tmp → rename to target) produce
// Rename events on the target file.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	workspace := w.ownerWorkspace(event.Name)
	if workspace == "" {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[workspace]; ok {
		timer.Stop()
	}
	w.debounce[workspace] = time.AfterFunc(250*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounce, workspace)
		w.debounceMu.Unlock()

		log.Printf("[watcher] workspace %s changed, invalidating analyzer session", workspace)
		w.registry.Invalidate(workspace)
	})
}

// ownerWorkspace finds which watched workspace a changed path belongs to.
func (w *Watcher) ownerWorkspace(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for ws := range w.workspaces {
		if len(path) >= len(ws) && path[:len(ws)] == ws {
			return ws
		}
	}
	return ""
}
