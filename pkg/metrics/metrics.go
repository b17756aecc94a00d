// Package metrics exposes sync and valuation telemetry for the daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "compound"

// Results recorded against sync runs and remote writes.
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
	ResultOK        = "ok"
)

// Collector holds the compound collectors on a private registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	syncRuns      *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	remoteWrites  *prometheus.CounterVec
	pending       prometheus.Gauge
	deposits      prometheus.Gauge
	currentStreak prometheus.Gauge
	compoundValue prometheus.Gauge
	lastSync      prometheus.Gauge
}

// New registers the collectors, plus the Go runtime collector.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Sync runs by result.",
		},
		[]string{"result"},
	)
	c.syncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Time taken by a sync run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	c.remoteWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "writes_total",
			Help:      "Remote write calls by operation and result.",
		},
		[]string{"op", "result"},
	)
	c.pending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "pending_entries",
		Help:      "Entries waiting on a confirmed remote write.",
	})
	c.lastSync = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last completed sync.",
	})
	c.deposits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "deposits",
		Help:      "Total deposits in the local store.",
	})
	c.currentStreak = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "current_streak_days",
		Help:      "Current deposit streak.",
	})
	c.compoundValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "value",
		Help:      "Compound value of all deposits as of today.",
	})

	c.registry.MustRegister(
		c.syncRuns,
		c.syncDuration,
		c.remoteWrites,
		c.pending,
		c.lastSync,
		c.deposits,
		c.currentStreak,
		c.compoundValue,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveSync records one orchestrator run.
func (c *Collector) ObserveSync(result string, took time.Duration, finished time.Time) {
	if c == nil {
		return
	}
	c.syncRuns.WithLabelValues(result).Inc()
	c.syncDuration.Observe(took.Seconds())
	if result == ResultChanged || result == ResultUnchanged {
		c.lastSync.Set(float64(finished.Unix()))
	}
}

// ObserveWrite records a remote write call.
func (c *Collector) ObserveWrite(op string, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	c.remoteWrites.WithLabelValues(op, result).Inc()
}

// SetPending records the pending queue length.
func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.pending.Set(float64(n))
}

// SetJournal records the headline numbers of the journal.
func (c *Collector) SetJournal(deposits, streak int, value float64) {
	if c == nil {
		return
	}
	c.deposits.Set(float64(deposits))
	c.currentStreak.Set(float64(streak))
	c.compoundValue.Set(value)
}
