package git

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before notifying.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to the repository metadata and the top level of
// the work tree. Bursts of events are coalesced into one notification.
type Watcher struct {
	root     string
	debounce time.Duration
	log      *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	subs    []func()

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches root and its .git directory. A root without .git is
// watched alone.
func NewWatcher(root string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, err
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		if err := w.Add(gitDir); err != nil {
			w.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:     root,
		debounce: debounce,
		log:      log,
		watcher:  w,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers a callback run from the watcher goroutine.
func (w *Watcher) OnChange(cb func()) {
	w.mu.Lock()
	w.subs = append(w.subs, cb)
	w.mu.Unlock()
}

// Start begins watching.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher and waits for its goroutine.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
	<-w.done
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.notify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Debug("git watcher error", zap.Error(err))
		}
	}
}

// relevant filters out lock files git creates and removes on every command.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return !strings.HasSuffix(ev.Name, ".lock")
}

func (w *Watcher) notify() {
	w.mu.Lock()
	subs := append([]func(){}, w.subs...)
	w.mu.Unlock()
	for _, cb := range subs {
		cb()
	}
}
