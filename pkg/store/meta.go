package store

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DeviceID returns this installation's identifier, creating and persisting it
// on first use. When the write fails the freshly generated id is still
// returned together with the error.
func (p *persistence) DeviceID() (string, error) {
	var id string
	if p.readMeta(keyDeviceID, &id) && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	return id, p.writeMeta(keyDeviceID, id)
}

// PendingIDs returns the ids still waiting on a confirmed remote write,
// sorted. A missing or corrupt queue reads as empty.
func (p *persistence) PendingIDs() []string {
	var ids []string
	if !p.readMeta(keyPending, &ids) {
		return []string{}
	}
	sort.Strings(ids)
	return ids
}

// MarkPending queues id. Queue updates are serialized within the process.
func (p *persistence) MarkPending(id string) error {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	ids := p.PendingIDs()
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return p.writeMeta(keyPending, append(ids, id))
}

// UnmarkPending removes ids from the queue, leaving ids queued since alone.
func (p *persistence) UnmarkPending(ids ...string) error {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	queued := p.PendingIDs()
	kept := make([]string, 0, len(queued))
	for _, existing := range queued {
		if _, ok := drop[existing]; !ok {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(queued) {
		return nil
	}
	if len(kept) == 0 {
		return p.eraseMeta(keyPending)
	}
	return p.writeMeta(keyPending, kept)
}

func (p *persistence) ClearPending() error {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return p.eraseMeta(keyPending)
}

// LastSync returns when the last sync completed, or the zero time.
func (p *persistence) LastSync() time.Time {
	var at time.Time
	if !p.readMeta(keyLastSync, &at) {
		return time.Time{}
	}
	return at
}

func (p *persistence) SetLastSync(at time.Time) error {
	return p.writeMeta(keyLastSync, at.UTC())
}
