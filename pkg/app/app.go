package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/stats"
	"tableflip.dev/compound/pkg/store"
	"tableflip.dev/compound/pkg/syncer"
	"tableflip.dev/compound/pkg/valuation"
)

// Options tune a Service. The zero value is usable.
type Options struct {
	Log     logrus.FieldLogger
	Metrics *metrics.Collector
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Service is the journal facade shared by the CLI and the daemon. Local
// reads and writes are synchronous; remote writes run in the background. No
// method returns an error for a local or remote failure: those are logged
// and the data stays local.
type Service struct {
	Persistence store.Persistence
	Mirror      remote.Mirror

	log     logrus.FieldLogger
	metrics *metrics.Collector
	now     func() time.Time

	// mu serializes writes to the local store.
	mu       sync.Mutex
	sync     *syncer.Orchestrator
	uploads  *uploader
	closeErr error
	closed   sync.Once
}

// New builds a Service over p. A nil m runs local only.
func New(p store.Persistence, m remote.Mirror, opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Service{
		Persistence: p,
		Mirror:      m,
		log:         log.WithField("component", "app"),
		metrics:     opts.Metrics,
		now:         now,
	}
	s.sync = &syncer.Orchestrator{
		Persistence: p,
		Mirror:      m,
		Log:         log,
		Metrics:     opts.Metrics,
		Locker:      &s.mu,
		Now:         now,
	}
	if m != nil {
		s.uploads = newUploader(p, m, log, opts.Metrics)
	}
	return s
}

// Now returns the current time by the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) today() entry.Day {
	return entry.DayOf(s.now())
}

// Save stores e under its id, replacing any entry for the same day, and
// queues the remote upsert. The returned entry is the stored copy with a fresh
// timestamp. A previous analysis is kept when e carries none.
func (s *Service) Save(ctx context.Context, e *entry.Entry) (*entry.Entry, *Upload) {
	if err := e.Validate(); err != nil {
		s.log.WithError(err).Warn("refusing to save invalid entry")
		id := ""
		if e != nil {
			id = e.ID
		}
		return e, finishedUpload(id, err)
	}
	saved := e.Clone()

	s.mu.Lock()
	saved.Timestamp = entry.Stamp(s.now())
	if saved.Analysis == "" {
		if prev, err := s.Persistence.Read(saved.ID); err == nil {
			saved.Analysis = prev.Analysis
		}
	}
	if err := s.Persistence.Store(saved); err != nil {
		s.log.WithError(err).WithField("id", saved.ID).Warn("local save failed")
	}
	if _, err := store.RecalculateStats(ctx, s.Persistence, s.today()); err != nil {
		s.log.WithError(err).Warn("caching stats")
	}
	s.mu.Unlock()

	if s.uploads == nil {
		return saved, finishedUpload(saved.ID, remote.ErrNotConfigured)
	}
	deviceID, err := s.Persistence.DeviceID()
	if err != nil {
		s.log.WithError(err).Warn("device id not persisted")
	}
	return saved, s.uploads.submit(remote.FromEntry(saved, deviceID))
}

// Read returns the entry for id, or nil.
func (s *Service) Read(_ context.Context, id string) *entry.Entry {
	e, err := s.Persistence.Read(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WithError(err).WithField("id", id).Warn("reading entry")
		}
		return nil
	}
	return e
}

// List returns every entry.
func (s *Service) List(ctx context.Context) []*entry.Entry {
	return s.Persistence.ListAll(ctx)
}

// Sorted returns every entry ordered by id.
func (s *Service) Sorted(ctx context.Context, desc bool) []*entry.Entry {
	all := s.Persistence.ListAll(ctx)
	entry.Sort(all, desc)
	return all
}

// Today returns today's entry, or nil.
func (s *Service) Today(ctx context.Context) *entry.Entry {
	return s.Read(ctx, s.today().String())
}

// Yesterday returns yesterday's entry, or nil.
func (s *Service) Yesterday(ctx context.Context) *entry.Entry {
	return s.Read(ctx, s.today().Add(-1).String())
}

// FirstVisit reports whether nothing has been deposited yet.
func (s *Service) FirstVisit(ctx context.Context) bool {
	return len(s.Persistence.ListAll(ctx)) == 0
}

// Sync reconciles with the mirror and reports whether local data changed.
func (s *Service) Sync(ctx context.Context) bool {
	return s.SyncResult(ctx).Changed
}

// SyncResult is Sync with the details of the run.
func (s *Service) SyncResult(ctx context.Context) syncer.Result {
	return s.sync.Run(ctx)
}

// Stats returns the cached stats when they were computed today and
// recomputes them otherwise.
func (s *Service) Stats(ctx context.Context) stats.Stats {
	today := s.today()
	if cached, ok := s.Persistence.CachedStats(); ok && cached.AsOf == today.String() {
		return cached
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := store.RecalculateStats(ctx, s.Persistence, today)
	if err != nil {
		s.log.WithError(err).Warn("caching stats")
	}
	return st
}

// Valuation computes the compound value of every deposit as of today.
func (s *Service) Valuation(ctx context.Context) valuation.Valuation {
	all := s.Persistence.ListAll(ctx)
	today := s.today()
	v := valuation.Compute(all, today)
	if s.metrics != nil {
		st := stats.Compute(all, today)
		s.metrics.SetJournal(st.TotalDeposits, st.CurrentStreak, v.CompoundValue)
	}
	return v
}

// SaveAnalysis attaches analysis to the entry for id, locally and on the
// mirror. It reports whether the local entry existed. A remote failure is
// logged only; the next upsert of the entry carries the analysis.
func (s *Service) SaveAnalysis(ctx context.Context, id, analysis string) bool {
	s.mu.Lock()
	e, err := s.Persistence.Read(id)
	found := err == nil
	if found {
		e.Analysis = analysis
		if err := s.Persistence.Store(e); err != nil {
			s.log.WithError(err).WithField("id", id).Warn("local analysis save failed")
		}
	}
	s.mu.Unlock()

	if s.Mirror != nil {
		err := s.Mirror.SetAnalysis(ctx, id, analysis)
		s.metrics.ObserveWrite("analysis", err)
		if err != nil {
			s.log.WithError(err).WithField("id", id).Warn("remote analysis save failed")
		}
	}
	return found
}

// LastSync returns when a sync last completed, or the zero time.
func (s *Service) LastSync() time.Time {
	return s.Persistence.LastSync()
}

// DeviceID returns this installation's id.
func (s *Service) DeviceID() string {
	id, err := s.Persistence.DeviceID()
	if err != nil {
		s.log.WithError(err).Warn("device id not persisted")
	}
	return id
}

// PendingIDs returns the ids waiting on a confirmed remote write.
func (s *Service) PendingIDs() []string {
	return s.Persistence.PendingIDs()
}

// CloudEnabled reports whether a mirror is configured.
func (s *Service) CloudEnabled() bool {
	return s.Mirror != nil
}

// Watch subscribes to persistence change events.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	return s.Persistence.Watch(ctx)
}

// Close drains queued uploads until ctx is done, then closes the mirror.
// Uploads still queued when ctx ends are marked pending.
func (s *Service) Close(ctx context.Context) error {
	s.closed.Do(func() {
		var errs []error
		if s.uploads != nil {
			errs = append(errs, s.uploads.close(ctx))
		}
		if s.Mirror != nil {
			errs = append(errs, s.Mirror.Close())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
