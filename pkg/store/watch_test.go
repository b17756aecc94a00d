package store

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/entry"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string {
	return t.path
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func loadTestStore(t *testing.T) Persistence {
	t.Helper()
	p, err := Load(testConfig{path: t.TempDir()}, quietLogger())
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}
	return p
}

func TestPersistenceWatchEmitsEntryChanges(t *testing.T) {
	p := loadTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	e := entry.New(entry.MustParse("2024-01-01"), "hello world", time.Now())
	if err := p.Store(e); err != nil {
		t.Fatalf("store entry: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if evt.Type == EventEntryChanged {
				if evt.ID != "2024-01-01" {
					t.Fatalf("expected entry '2024-01-01', got %q", evt.ID)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for entry change event")
		}
	}
}

func TestPersistenceWatchClosesOnCancel(t *testing.T) {
	p := loadTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func TestEventForPath(t *testing.T) {
	p := &persistence{basePath: "/data"}
	tests := []struct {
		path string
		want Event
		ok   bool
	}{
		{path: "/data/entries/2024-01-01", want: Event{Type: EventEntryChanged, ID: "2024-01-01"}, ok: true},
		{path: "/data/meta/pending_sync", want: Event{Type: EventMetaChanged, ID: "pending_sync"}, ok: true},
		{path: "/data/entries", ok: false},
		{path: "/data", ok: false},
		{path: "/data/other/x", ok: false},
		{path: "/data/entries/.swap", ok: false},
	}
	for _, tt := range tests {
		got, ok := p.eventForPath(tt.path)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: expected %+v/%v, got %+v/%v", tt.path, tt.want, tt.ok, got, ok)
		}
	}
}
