package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/stats"
	"tableflip.dev/compound/pkg/store"
	"tableflip.dev/compound/pkg/valuation"
)

type testConfig struct{ path string }

func (c testConfig) BasePath() string { return c.path }

func newService(t *testing.T, today string, ids ...string) *app.Service {
	t.Helper()
	p, err := store.Load(testConfig{path: t.TempDir()}, logging.Discard())
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, p.Store(entry.New(entry.MustParse(id), "deposit "+id, time.Now())))
	}
	d := entry.MustParse(today)
	at := time.Date(d.Year(), d.Month(), d.DayOfMonth(), 12, 0, 0, 0, time.UTC)
	s := app.New(p, nil, app.Options{Log: logging.Discard(), Now: func() time.Time { return at }})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStatsJSON(t *testing.T) {
	svc := newService(t, "2024-01-03", "2024-01-01", "2024-01-02", "2024-01-03")
	var buf bytes.Buffer
	require.NoError(t, (&Stats{Service: svc, JSON: true, Out: &buf}).Do(context.Background()))

	var got stats.Stats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got.TotalDeposits)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.LongestStreak)
	assert.Equal(t, "2024-01-01", got.StartDate)
}

func TestStatsBrokenStreak(t *testing.T) {
	svc := newService(t, "2024-01-07", "2024-01-01", "2024-01-05")
	var buf bytes.Buffer
	require.NoError(t, (&Stats{Service: svc, JSON: true, Out: &buf}).Do(context.Background()))

	var got stats.Stats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got.LongestStreak)
	assert.Equal(t, 0, got.CurrentStreak)
}

func TestValueJSON(t *testing.T) {
	svc := newService(t, "2024-01-03", "2024-01-01", "2024-01-02", "2024-01-03")

	var buf bytes.Buffer
	require.NoError(t, (&Value{Service: svc, JSON: true, Out: &buf}).Do(context.Background()))
	var got valuation.Valuation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3.0, got.CompoundValue)
	assert.Empty(t, got.GrowthCurve)
	assert.Empty(t, got.Projection)

	buf.Reset()
	require.NoError(t, (&Value{Service: svc, JSON: true, Curve: true, Projection: true, Out: &buf}).Do(context.Background()))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.NotEmpty(t, got.GrowthCurve)
	assert.Len(t, got.Projection, valuation.ProjectionDays)
}

func TestValuePretty(t *testing.T) {
	svc := newService(t, "2024-01-03", "2024-01-01", "2024-01-02", "2024-01-03")
	var buf bytes.Buffer
	require.NoError(t, (&Value{Service: svc, Out: &buf}).Do(context.Background()))
	assert.Contains(t, buf.String(), "3.0")
}
