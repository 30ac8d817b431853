package ingest

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the log directory for segments appended by
// other writers and triggers onChange after a quiet debounce
// period, so a burst of appends coalesces into one catch-up.
type Watcher struct {
	onChange func()
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a watcher on dir. Start must be called to
// begin processing.
func NewWatcher(
	dir string, debounce time.Duration, onChange func(),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Start begins processing file events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent records a pending change for segment writes and
// creations; other paths and operations are ignored.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = w.now()
	w.mu.Unlock()
}

// flush fires onChange once the quiet period has elapsed.
func (w *Watcher) flush() {
	w.mu.Lock()
	fire := !w.pending.IsZero() &&
		w.now().Sub(w.pending) >= w.debounce
	if fire {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if fire {
		w.onChange()
	}
}
