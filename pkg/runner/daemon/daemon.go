// Package daemon keeps the journal in sync in the background.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/store"
)

// Daemon syncs once at start, then on Schedule and whenever another process
// changes an entry. It runs until its context is cancelled.
type Daemon struct {
	Service *app.Service
	// Schedule is a cron spec, for example "@every 15m" or "*/10 * * * *".
	Schedule string
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
	Metrics     *metrics.Collector
	Log         logrus.FieldLogger

	// ready is closed once the listener, scheduler and watcher are up.
	ready chan struct{}
	addr  net.Addr
}

// Do blocks until ctx is done.
func (d *Daemon) Do(ctx context.Context) error {
	if d.Service == nil {
		return errors.New("can not run daemon, no service")
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "daemon")
	if d.ready == nil {
		d.ready = make(chan struct{})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	if d.MetricsAddr != "" {
		srv, err := d.serveMetrics(log, &wg, errCh)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("metrics server shutdown")
			}
			wg.Wait()
		}()
	}

	trigger := make(chan string, 1)
	kick := func(reason string) {
		select {
		case trigger <- reason:
		default:
		}
	}

	sched := cron.New(cron.WithLogger(cronLogger{log}), cron.WithChain(cron.Recover(cronLogger{log})))
	if _, err := sched.AddFunc(d.Schedule, func() { kick("schedule") }); err != nil {
		return fmt.Errorf("daemon: bad schedule %q: %w", d.Schedule, err)
	}

	events, err := d.Service.Watch(ctx)
	if err != nil {
		log.WithError(err).Warn("watching the store failed, relying on the schedule")
	}

	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case reason := <-trigger:
				d.sync(ctx, log, reason)
			}
		}
	}()
	if events != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for ev := range events {
				if ev.Type == store.EventEntryChanged || ev.Type == store.EventInvalidated {
					kick("change")
				}
			}
		}()
	}

	kick("start")
	log.WithField("schedule", d.Schedule).Info("daemon started")
	close(d.ready)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		log.WithError(runErr).Error("metrics server failed")
	}
	cancel()
	workers.Wait()
	log.Info("daemon stopped")
	return runErr
}

func (d *Daemon) sync(ctx context.Context, log logrus.FieldLogger, reason string) {
	res := d.Service.SyncResult(ctx)
	fields := logrus.Fields{
		"reason":  reason,
		"changed": res.Changed,
		"pulled":  res.Pulled,
		"pushed":  res.Pushed,
		"flushed": res.Flushed,
	}
	switch {
	case res.Skipped:
		log.WithField("reason", reason).Debug("cloud not configured, nothing to sync")
	case res.Err != nil:
		log.WithFields(fields).WithError(res.Err).Warn("sync failed")
	default:
		log.WithFields(fields).Info("synced")
	}
	// Refreshes the journal gauges.
	d.Service.Valuation(ctx)
}

func (d *Daemon) serveMetrics(log logrus.FieldLogger, wg *sync.WaitGroup, errCh chan<- error) (*http.Server, error) {
	ln, err := net.Listen("tcp", d.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("daemon: metrics listener: %w", err)
	}
	d.addr = ln.Addr()

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.Metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("addr", d.addr.String()).Info("serving metrics")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return srv, nil
}

// cronLogger adapts logrus to the scheduler's logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fieldsOf(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fieldsOf(keysAndValues)).WithError(err).Error(msg)
}

func fieldsOf(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
