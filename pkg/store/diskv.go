package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/stats"
)

// ErrNotFound is returned by Read when no entry exists for the id.
var ErrNotFound = errors.New("store: entry not found")

// Persistence defines the persistence contract for deposits and the small
// bookkeeping records kept next to them.
type Persistence interface {
	Read(id string) (*entry.Entry, error)
	ListAll(ctx context.Context) []*entry.Entry
	Store(e *entry.Entry) error

	DeviceID() (string, error)
	CachedStats() (stats.Stats, bool)
	SaveStats(s stats.Stats) error

	PendingIDs() []string
	MarkPending(id string) error
	UnmarkPending(ids ...string) error
	ClearPending() error

	LastSync() time.Time
	SetLastSync(at time.Time) error

	Watch(ctx context.Context) (<-chan Event, error)
}

// Config points the store at its directory.
type Config interface {
	BasePath() string
}

const (
	entriesBucket = "entries"
	metaBucket    = "meta"

	keyDeviceID = "device_id"
	keyStats    = "stats"
	keyPending  = "pending_sync"
	keyLastSync = "last_sync"
)

// Load creates a Persistence backed by diskv rooted at cfg.BasePath().
func Load(cfg Config, log logrus.FieldLogger) (Persistence, error) {
	if cfg == nil {
		return nil, errors.New("store: config required")
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      0, // the daemon and one-shot commands share the directory
	}), basePath: basePath, log: log.WithField("component", "store")}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
	log      logrus.FieldLogger

	pendingMu sync.Mutex
}

func (p *persistence) Read(id string) (*entry.Entry, error) {
	val, err := p.d.Read(entryKey(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", id, err)
	}
	e := &entry.Entry{}
	if err := json.Unmarshal(val, e); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	// The key is canonical; the body never overrides it.
	e.ID = id
	return e, nil
}

func (p *persistence) ListAll(ctx context.Context) []*entry.Entry {
	all := make([]*entry.Entry, 0)
	for key := range p.d.KeysPrefix(entriesBucket+":", ctx.Done()) {
		id := keyToPathTransform(key).FileName
		e, err := p.Read(id)
		if err != nil {
			p.log.WithError(err).WithField("key", key).Warn("skipping unreadable entry")
			continue
		}
		all = append(all, e)
	}
	entry.Sort(all, false)
	return all
}

func (p *persistence) Store(e *entry.Entry) error {
	if e == nil || e.ID == "" {
		return errors.New("store: entry id required")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.d.Write(entryKey(e.ID), data)
}

// readMeta decodes a bookkeeping record into v. Missing records report false;
// corrupt ones are logged and also report false so callers fall back to an
// empty default.
func (p *persistence) readMeta(name string, v any) bool {
	val, err := p.d.Read(metaKey(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.log.WithError(err).WithField("key", name).Warn("reading record")
		}
		return false
	}
	if len(val) == 0 {
		return false
	}
	if err := json.Unmarshal(val, v); err != nil {
		p.log.WithError(err).WithField("key", name).Warn("discarding corrupt record")
		return false
	}
	return true
}

func (p *persistence) writeMeta(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.d.Write(metaKey(name), data); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

func (p *persistence) eraseMeta(name string) error {
	if err := p.d.Erase(metaKey(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: erase %s: %w", name, err)
	}
	return nil
}

func (p *persistence) CachedStats() (stats.Stats, bool) {
	var s stats.Stats
	if !p.readMeta(keyStats, &s) {
		return stats.Stats{}, false
	}
	return s, true
}

func (p *persistence) SaveStats(s stats.Stats) error {
	return p.writeMeta(keyStats, s)
}

func entryKey(id string) string { return entriesBucket + ":" + id }

func metaKey(name string) string { return metaBucket + ":" + name }

// keyToPathTransform maps `bucket:name` to the file bucket/name.
func keyToPathTransform(s string) *diskv.PathKey {
	bucket, name, found := strings.Cut(s, ":")
	if !found {
		return &diskv.PathKey{Path: []string{}, FileName: s}
	}
	return &diskv.PathKey{
		Path:     []string{bucket},
		FileName: name,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s:%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}
