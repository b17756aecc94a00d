// Package syncer reconciles the local store with its remote mirror.
//
// A run pulls every remote row, lets a remote row replace the local entry when
// the local one is missing or strictly older, pushes local-only entries, then
// retries the pending queue. Failures are logged and reported in the Result;
// they never reach the caller as a panic or a returned error.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/store"
)

// Result describes one run.
type Result struct {
	// Changed is true when remote data replaced or added local entries.
	Changed bool
	// Skipped is true when no mirror is configured.
	Skipped bool

	Pulled  int
	Merged  int
	Pushed  int
	Flushed int

	// Err is the first failure seen. A pull failure aborts the run; push and
	// flush failures do not.
	Err error
}

// Orchestrator runs syncs. The zero value is not usable; Persistence is
// required and a nil Mirror means the cloud is off.
type Orchestrator struct {
	Persistence store.Persistence
	Mirror      remote.Mirror
	Log         logrus.FieldLogger
	Metrics     *metrics.Collector
	// Locker, when set, is held while remote rows are written locally so the
	// merge does not interleave with local saves.
	Locker sync.Locker
	Now    func() time.Time

	mu sync.Mutex
}

// Sync runs once and reports whether local data changed.
func (o *Orchestrator) Sync(ctx context.Context) bool {
	return o.Run(ctx).Changed
}

// Run performs a full sync. Concurrent calls are serialized.
func (o *Orchestrator) Run(ctx context.Context) (res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := o.log()
	start := o.now()
	defer func() {
		o.Metrics.ObserveSync(resultLabel(res), o.now().Sub(start), o.now())
		o.Metrics.SetPending(len(o.Persistence.PendingIDs()))
	}()

	if o.Mirror == nil {
		res.Skipped = true
		return res
	}

	rows, err := o.Mirror.SelectAll(ctx)
	if err != nil {
		log.WithError(err).Warn("pull failed, keeping local data")
		res.Err = err
		return res
	}
	res.Pulled = len(rows)

	deviceID, err := o.Persistence.DeviceID()
	if err != nil {
		log.WithError(err).Warn("device id not persisted")
	}

	if len(rows) > 0 {
		res.Merged = o.merge(ctx, rows)
		res.Changed = res.Merged > 0
	} else {
		log.Debug("remote is empty, seeding it from local entries")
	}

	remoteIDs := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		remoteIDs[r.ID] = struct{}{}
	}
	if n, err := o.push(ctx, remoteIDs, deviceID); err != nil {
		res.Err = err
	} else {
		res.Pushed = n
	}

	if n, err := o.flush(ctx, deviceID); err != nil {
		if res.Err == nil {
			res.Err = err
		}
	} else {
		res.Flushed = n
	}

	if err := o.Persistence.SetLastSync(o.now()); err != nil {
		log.WithError(err).Warn("recording last sync")
	}
	log.WithFields(logrus.Fields{
		"pulled":  res.Pulled,
		"merged":  res.Merged,
		"pushed":  res.Pushed,
		"flushed": res.Flushed,
	}).Debug("sync complete")
	return res
}

// merge writes remote rows that win over the local copy and returns how many
// were written.
func (o *Orchestrator) merge(ctx context.Context, rows []remote.Row) int {
	if o.Locker != nil {
		o.Locker.Lock()
		defer o.Locker.Unlock()
	}
	log := o.log()

	local := make(map[string]*entry.Entry)
	for _, e := range o.Persistence.ListAll(ctx) {
		local[e.ID] = e
	}

	merged := 0
	for _, r := range rows {
		if d, err := entry.Parse(r.ID); err != nil || d.String() != r.ID {
			log.WithField("id", r.ID).Warn("ignoring remote row with a malformed id")
			continue
		}
		incoming := r.Entry()
		current, ok := local[r.ID]
		if ok && !incoming.Timestamp.Newer(current.Timestamp) {
			continue
		}
		// A row without an analysis keeps the local one rather than erasing it.
		if ok && incoming.Analysis == "" {
			incoming.Analysis = current.Analysis
		}
		if err := o.Persistence.Store(incoming); err != nil {
			log.WithError(err).WithField("id", r.ID).Warn("storing remote entry")
			continue
		}
		merged++
	}

	if merged > 0 {
		if _, err := store.RecalculateStats(ctx, o.Persistence, entry.DayOf(o.now())); err != nil {
			log.WithError(err).Warn("caching stats")
		}
	}
	return merged
}

// push upserts local entries the remote does not have. On failure every one
// of them is queued for the next flush.
func (o *Orchestrator) push(ctx context.Context, remoteIDs map[string]struct{}, deviceID string) (int, error) {
	var rows []remote.Row
	for _, e := range o.Persistence.ListAll(ctx) {
		if _, ok := remoteIDs[e.ID]; ok {
			continue
		}
		rows = append(rows, remote.FromEntry(e, deviceID))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	log := o.log()
	err := o.Mirror.Upsert(ctx, rows)
	o.Metrics.ObserveWrite("push", err)
	if err != nil {
		log.WithError(err).WithField("count", len(rows)).Warn("push failed, queueing entries")
		for _, r := range rows {
			if err := o.Persistence.MarkPending(r.ID); err != nil {
				log.WithError(err).WithField("id", r.ID).Warn("queueing entry")
			}
		}
		return 0, err
	}
	log.WithField("count", len(rows)).Info("pushed local entries")
	return len(rows), nil
}

// flush retries queued ids that still exist locally. The queue is cleared
// once the upsert succeeds, or when none of its ids exist anymore.
func (o *Orchestrator) flush(ctx context.Context, deviceID string) (int, error) {
	pending := o.Persistence.PendingIDs()
	if len(pending) == 0 {
		return 0, nil
	}

	log := o.log()
	var rows []remote.Row
	for _, id := range pending {
		e, err := o.Persistence.Read(id)
		if err != nil {
			continue
		}
		rows = append(rows, remote.FromEntry(e, deviceID))
	}

	if len(rows) > 0 {
		err := o.Mirror.Upsert(ctx, rows)
		o.Metrics.ObserveWrite("flush", err)
		if err != nil {
			log.WithError(err).WithField("count", len(rows)).Warn("pending flush failed")
			return 0, err
		}
		log.WithField("count", len(rows)).Info("flushed pending entries")
	}
	// Only the ids read above are dropped; an upload that failed meanwhile
	// stays queued.
	if err := o.Persistence.UnmarkPending(pending...); err != nil {
		log.WithError(err).Warn("clearing pending queue")
	}
	return len(rows), nil
}

func (o *Orchestrator) log() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger().WithField("component", "sync")
	}
	return o.Log.WithField("component", "sync")
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func resultLabel(r Result) string {
	switch {
	case r.Skipped:
		return metrics.ResultSkipped
	case r.Err != nil:
		return metrics.ResultFailed
	case r.Changed:
		return metrics.ResultChanged
	default:
		return metrics.ResultUnchanged
	}
}
