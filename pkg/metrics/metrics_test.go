package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape returns the text exposition of c.
func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

// value finds the sample for name whose labels include all of labels.
func value(t *testing.T, c *Collector, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestCollectorRecords(t *testing.T) {
	c := New()
	c.ObserveSync(ResultChanged, 20*time.Millisecond, time.Unix(1700000000, 0))
	c.ObserveSync(ResultFailed, time.Millisecond, time.Unix(1700000100, 0))
	c.ObserveWrite("upsert", nil)
	c.ObserveWrite("upsert", errors.New("offline"))
	c.ObserveWrite("upsert", errors.New("offline"))
	c.SetPending(2)
	c.SetJournal(10, 4, 10.7)

	assert.Equal(t, 1.0, value(t, c, "compound_sync_runs_total", map[string]string{"result": ResultChanged}))
	assert.Equal(t, 1.0, value(t, c, "compound_sync_runs_total", map[string]string{"result": ResultFailed}))
	assert.Equal(t, 2.0, value(t, c, "compound_remote_writes_total", map[string]string{"op": "upsert", "result": ResultFailed}))
	assert.Equal(t, 1.0, value(t, c, "compound_remote_writes_total", map[string]string{"op": "upsert", "result": ResultOK}))
	assert.Equal(t, 2.0, value(t, c, "compound_sync_pending_entries", nil))
	assert.Equal(t, 10.7, value(t, c, "compound_value", nil))
	assert.Equal(t, 4.0, value(t, c, "compound_current_streak_days", nil))
	assert.Equal(t, 1700000000.0, value(t, c, "compound_sync_last_success_timestamp_seconds", nil))
}

func TestHandlerServesMetrics(t *testing.T) {
	c := New()
	c.SetJournal(3, 3, 3.0)

	body := scrape(t, c)
	assert.Contains(t, body, "compound_deposits 3")
	assert.Contains(t, body, "go_goroutines")
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveSync(ResultChanged, time.Second, time.Now())
	c.ObserveWrite("upsert", nil)
	c.SetPending(1)
	c.SetJournal(1, 1, 1)
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
