package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a persistence change notification.
type EventType int

const (
	// EventEntryChanged indicates the entry named by Event.ID was written or
	// removed.
	EventEntryChanged EventType = iota

	// EventMetaChanged indicates a bookkeeping record (device id, stats,
	// pending queue, last sync) changed. Event.ID holds the record name.
	EventMetaChanged

	// EventInvalidated signals that the watcher could not classify a change
	// and callers should reload everything.
	EventInvalidated
)

func (t EventType) String() string {
	switch t {
	case EventEntryChanged:
		return "entry"
	case EventMetaChanged:
		return "meta"
	default:
		return "invalidated"
	}
}

// Event is emitted by Persistence.Watch when underlying storage changes.
type Event struct {
	Type EventType
	ID   string
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel to avoid dropping events. The channel is closed once ctx is
// done or the watcher encounters an unrecoverable error.
func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	for _, bucket := range []string{entriesBucket, metaBucket} {
		if err := os.MkdirAll(filepath.Join(p.basePath, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("store: ensure %s directory: %w", bucket, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				p.log.WithError(err).Warn("watcher close")
			}
		})
	}

	dirs, err := collectDirs(p.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)
	out := &eventSink{ch: events}

	go func() {
		throttle := newEventThrottle(100 * time.Millisecond)
		defer out.close()
		defer closeWatcher()
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.log.WithError(err).Debug("watcher error")
				throttle.Enqueue(Event{Type: EventInvalidated}, out.send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				ev, ok := p.eventForPath(evt.Name)
				if !ok {
					continue
				}
				throttle.Enqueue(ev, out.send)
			}
		}
	}()

	return events, nil
}

// eventSink drops events the consumer is not ready for and ignores sends
// after close, since throttle flushes run on their own timer goroutine.
type eventSink struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *eventSink) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *eventSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// eventForPath classifies a file under the store directory.
func (p *persistence) eventForPath(path string) (Event, bool) {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil || rel == "." {
		return Event{}, false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) != 2 || parts[1] == "" || strings.HasPrefix(parts[1], ".") {
		return Event{}, false
	}
	switch parts[0] {
	case entriesBucket:
		return Event{Type: EventEntryChanged, ID: parts[1]}, true
	case metaBucket:
		return Event{Type: EventMetaChanged, ID: parts[1]}, true
	default:
		return Event{}, false
	}
}

// eventThrottle coalesces rapid change notifications so consumers react once
// per burst of filesystem activity instead of on every single write.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[Event]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[Event]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	t.pending[ev] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[Event]struct{})
	t.timer = nil
	t.mu.Unlock()

	for ev := range pending {
		send(ev)
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
