package app

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/store"
)

var (
	// ErrUploaderClosed completes uploads submitted after Close.
	ErrUploaderClosed = errors.New("app: uploader closed")
	// ErrUploadQueueFull completes uploads submitted while the mirror is too
	// far behind. The entry is queued for the next sync.
	ErrUploadQueueFull = errors.New("app: upload queue full")
)

const uploadQueueSize = 64

// Upload is the completion handle of one background remote write.
type Upload struct {
	ID string

	row       remote.Row
	done      chan struct{}
	err       error
	confirmed bool
}

func finishedUpload(id string, err error) *Upload {
	u := &Upload{ID: id, done: make(chan struct{})}
	u.finish(err)
	return u
}

func (u *Upload) finish(err error) {
	u.err = err
	u.confirmed = err == nil
	close(u.done)
}

// Done is closed once the upload has been attempted.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until the upload finishes or ctx is done and returns the upload
// error, or ctx's.
func (u *Upload) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the upload error once Done is closed, and nil before.
func (u *Upload) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

// Confirmed reports whether the remote accepted the write.
func (u *Upload) Confirmed() bool {
	select {
	case <-u.done:
		return u.confirmed
	default:
		return false
	}
}

// uploader applies uploads one at a time in submission order, so the last
// save of a day is also the last write the mirror sees.
type uploader struct {
	p       store.Persistence
	mirror  remote.Mirror
	log     logrus.FieldLogger
	metrics *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	jobs   chan *Upload
	wg     sync.WaitGroup
}

func newUploader(p store.Persistence, m remote.Mirror, log logrus.FieldLogger, mc *metrics.Collector) *uploader {
	ctx, cancel := context.WithCancel(context.Background())
	u := &uploader{
		p:       p,
		mirror:  m,
		log:     log.WithField("component", "uploader"),
		metrics: mc,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan *Upload, uploadQueueSize),
	}
	u.wg.Add(1)
	go u.run()
	return u
}

// submit never blocks: when the queue is full the upload fails at once and
// the entry waits in the pending queue instead.
func (u *uploader) submit(row remote.Row) *Upload {
	up := &Upload{ID: row.ID, row: row, done: make(chan struct{})}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		u.fail(up, ErrUploaderClosed)
		return up
	}
	select {
	case u.jobs <- up:
	default:
		u.log.WithField("id", up.ID).Warn("upload queue full, entry is safe locally")
		u.fail(up, ErrUploadQueueFull)
	}
	return up
}

func (u *uploader) run() {
	defer u.wg.Done()
	for up := range u.jobs {
		if err := u.ctx.Err(); err != nil {
			u.fail(up, err)
			continue
		}
		err := u.mirror.Upsert(u.ctx, []remote.Row{up.row})
		u.metrics.ObserveWrite("upsert", err)
		if err != nil {
			u.log.WithError(err).WithField("id", up.ID).Warn("cloud save failed, entry is safe locally")
			u.fail(up, err)
			continue
		}
		if err := u.p.UnmarkPending(up.ID); err != nil {
			u.log.WithError(err).WithField("id", up.ID).Warn("updating pending queue")
		}
		u.log.WithField("id", up.ID).Debug("saved to cloud")
		up.finish(nil)
	}
}

func (u *uploader) fail(up *Upload, err error) {
	if markErr := u.p.MarkPending(up.ID); markErr != nil {
		u.log.WithError(markErr).WithField("id", up.ID).Warn("queueing entry")
	}
	up.finish(err)
}

// close stops accepting uploads and waits for the queue to drain. When ctx
// ends first the remaining uploads are cancelled and queued for the next
// sync; close still waits for the worker to exit.
func (u *uploader) close(ctx context.Context) error {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		close(u.jobs)
	}
	u.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		u.cancel()
		return nil
	case <-ctx.Done():
		u.cancel()
		<-drained
		return ctx.Err()
	}
}
