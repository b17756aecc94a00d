package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/remote/supabase"
	"tableflip.dev/compound/pkg/stats"
	"tableflip.dev/compound/pkg/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testConfig struct{ path string }

func (c testConfig) BasePath() string { return c.path }

var now = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func newPersistence(t *testing.T) store.Persistence {
	t.Helper()
	p, err := store.Load(testConfig{path: t.TempDir()}, logging.Discard())
	require.NoError(t, err)
	return p
}

func newService(t *testing.T, m remote.Mirror) *Service {
	t.Helper()
	s := New(newPersistence(t), m, Options{
		Log: logging.Discard(),
		Now: func() time.Time { return now },
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func deposit(id, text string) *entry.Entry {
	return entry.New(entry.MustParse(id), text, time.Time{})
}

func waitUpload(t *testing.T, up *Upload) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := up.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

// gatedMirror holds every upsert until gate is closed and records the order
// texts arrive in.
type gatedMirror struct {
	*remote.Memory
	gate chan struct{}

	mu   sync.Mutex
	seen []string
}

func newGatedMirror() *gatedMirror {
	return &gatedMirror{Memory: remote.NewMemory(), gate: make(chan struct{})}
}

func (g *gatedMirror) Upsert(ctx context.Context, rows []remote.Row) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.mu.Lock()
	for _, r := range rows {
		g.seen = append(g.seen, r.Text)
	}
	g.mu.Unlock()
	return g.Memory.Upsert(ctx, rows)
}

func (g *gatedMirror) texts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.seen...)
}

func TestSaveLocalOnly(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()

	saved, up := s.Save(ctx, deposit("2024-01-03", "read 20 pages"))
	require.NotNil(t, saved)
	assert.True(t, saved.Timestamp.Equal(now))
	assert.ErrorIs(t, waitUpload(t, up), remote.ErrNotConfigured)
	assert.False(t, up.Confirmed())
	assert.False(t, s.CloudEnabled())

	got := s.Read(ctx, "2024-01-03")
	require.NotNil(t, got)
	assert.Equal(t, "read 20 pages", got.Text)

	cached, ok := s.Persistence.CachedStats()
	require.True(t, ok)
	assert.Equal(t, stats.Stats{TotalDeposits: 1, CurrentStreak: 1, LongestStreak: 1, StartDate: "2024-01-03", AsOf: "2024-01-03"}, cached)
	assert.Empty(t, s.PendingIDs())
}

func TestSaveUploads(t *testing.T) {
	m := remote.NewMemory()
	s := newService(t, m)
	ctx := context.Background()

	e := deposit("2024-01-03", "shipped")
	e.Health[entry.Exercised] = true
	e.Energy = 4
	_, up := s.Save(ctx, e)
	require.NoError(t, waitUpload(t, up))
	assert.True(t, up.Confirmed())
	assert.NoError(t, up.Err())

	r, ok := m.Row("2024-01-03")
	require.True(t, ok)
	assert.Equal(t, "shipped", r.Text)
	assert.Equal(t, 4, r.Energy)
	assert.True(t, r.Health[entry.Exercised])
	assert.Equal(t, s.DeviceID(), r.DeviceID)
	assert.True(t, r.UpdatedAt.Equal(now))
	assert.Empty(t, s.PendingIDs())
}

func TestSaveUploadFailureQueuesEntry(t *testing.T) {
	m := remote.NewMemory()
	boom := errors.New("503")
	m.SetFailures(boom, nil)
	s := newService(t, m)
	ctx := context.Background()

	saved, up := s.Save(ctx, deposit("2024-01-03", "offline"))
	assert.ErrorIs(t, waitUpload(t, up), boom)
	assert.False(t, up.Confirmed())
	assert.Equal(t, []string{"2024-01-03"}, s.PendingIDs())
	assert.NotNil(t, s.Read(ctx, saved.ID), "entry stays local")

	m.SetFailures(nil, nil)
	_, up = s.Save(ctx, deposit("2024-01-03", "back online"))
	require.NoError(t, waitUpload(t, up))
	assert.Empty(t, s.PendingIDs())
}

func TestSameDaySavesReachMirrorInOrder(t *testing.T) {
	m := newGatedMirror()
	s := newService(t, m)
	ctx := context.Background()

	var last *Upload
	texts := []string{"draft", "second", "third", "fourth", "final"}
	for _, text := range texts {
		_, last = s.Save(ctx, deposit("2024-01-03", text))
	}
	close(m.gate)
	require.NoError(t, waitUpload(t, last))

	assert.Equal(t, texts, m.texts())
	r, ok := m.Row("2024-01-03")
	require.True(t, ok)
	assert.Equal(t, "final", r.Text)
	assert.Equal(t, "final", s.Read(ctx, "2024-01-03").Text)
}

func TestSaveRejectsInvalidEntry(t *testing.T) {
	m := remote.NewMemory()
	s := newService(t, m)
	ctx := context.Background()

	e := deposit("2024-01-03", "too much")
	e.Energy = 9
	_, up := s.Save(ctx, e)
	assert.Error(t, waitUpload(t, up))
	assert.Nil(t, s.Read(ctx, "2024-01-03"))
	assert.Zero(t, m.Upserts())

	_, up = s.Save(ctx, nil)
	assert.Error(t, waitUpload(t, up))
}

func TestSaveKeepsExistingAnalysis(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()

	s.Save(ctx, deposit("2024-01-03", "first"))
	require.True(t, s.SaveAnalysis(ctx, "2024-01-03", "good momentum"))
	saved, _ := s.Save(ctx, deposit("2024-01-03", "edited"))
	assert.Equal(t, "good momentum", saved.Analysis)
	assert.Equal(t, "good momentum", s.Read(ctx, "2024-01-03").Analysis)
}

func TestSaveAfterCloseQueuesEntry(t *testing.T) {
	m := remote.NewMemory()
	s := newService(t, m)
	ctx := context.Background()
	require.NoError(t, s.Close(ctx))

	_, up := s.Save(ctx, deposit("2024-01-03", "late"))
	assert.ErrorIs(t, waitUpload(t, up), ErrUploaderClosed)
	assert.Equal(t, []string{"2024-01-03"}, s.PendingIDs())
	assert.NotNil(t, s.Read(ctx, "2024-01-03"))
}

func TestCloseGivesUpOnStuckUploads(t *testing.T) {
	m := newGatedMirror()
	s := newService(t, m)
	ctx := context.Background()

	_, first := s.Save(ctx, deposit("2024-01-02", "one"))
	_, second := s.Save(ctx, deposit("2024-01-03", "two"))

	closeCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(closeCtx), context.DeadlineExceeded)

	assert.Error(t, waitUpload(t, first))
	assert.Error(t, waitUpload(t, second))
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, s.PendingIDs())
	assert.Empty(t, m.Rows())
}

func TestSaveDoesNotBlockOnStalledMirror(t *testing.T) {
	m := newGatedMirror()
	s := newService(t, m)
	ctx := context.Background()

	const saves = uploadQueueSize + 6
	uploads := make(chan *Upload, saves)
	go func() {
		first := entry.MustParse("2023-10-01")
		for i := 0; i < saves; i++ {
			_, up := s.Save(ctx, deposit(first.Add(i).String(), "stalled"))
			uploads <- up
		}
		close(uploads)
	}()

	full := 0
	timeout := time.After(5 * time.Second)
	for i := 0; i < saves; i++ {
		select {
		case up := <-uploads:
			if errors.Is(up.Err(), ErrUploadQueueFull) {
				full++
			}
		case <-timeout:
			t.Fatalf("only %d of %d saves returned", i, saves)
		}
	}
	assert.GreaterOrEqual(t, full, saves-uploadQueueSize-1)
	assert.Len(t, s.List(ctx), saves)

	closeCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(closeCtx), context.DeadlineExceeded)
	assert.Len(t, s.PendingIDs(), saves)
	assert.Empty(t, m.Rows())
}

func TestConvenienceReads(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()
	assert.True(t, s.FirstVisit(ctx))
	assert.Nil(t, s.Today(ctx))

	s.Save(ctx, deposit("2024-01-01", "one"))
	s.Save(ctx, deposit("2024-01-02", "two"))
	s.Save(ctx, deposit("2024-01-03", "three"))

	assert.False(t, s.FirstVisit(ctx))
	require.NotNil(t, s.Today(ctx))
	assert.Equal(t, "three", s.Today(ctx).Text)
	require.NotNil(t, s.Yesterday(ctx))
	assert.Equal(t, "two", s.Yesterday(ctx).Text)
	assert.Nil(t, s.Read(ctx, "2023-12-31"))

	assert.Equal(t, []string{"2024-01-03", "2024-01-02", "2024-01-01"}, entry.IDs(s.Sorted(ctx, true)))
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, entry.IDs(s.Sorted(ctx, false)))
	assert.Len(t, s.List(ctx), 3)
}

func TestStatsRecomputedWhenStale(t *testing.T) {
	p := newPersistence(t)
	for _, id := range []string{"2024-01-01", "2024-01-02"} {
		require.NoError(t, p.Store(deposit(id, id)))
	}
	require.NoError(t, p.SaveStats(stats.Stats{TotalDeposits: 2, CurrentStreak: 2, LongestStreak: 2, StartDate: "2024-01-01", AsOf: "2024-01-02"}))

	s := New(p, nil, Options{Log: logging.Discard(), Now: func() time.Time { return now.AddDate(0, 0, 2) }})
	st := s.Stats(context.Background())
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
	assert.Equal(t, "2024-01-05", st.AsOf)

	cached, ok := p.CachedStats()
	require.True(t, ok)
	assert.Equal(t, st, cached)
}

func TestStatsUsesFreshCache(t *testing.T) {
	p := newPersistence(t)
	want := stats.Stats{TotalDeposits: 7, CurrentStreak: 7, LongestStreak: 7, StartDate: "2023-12-28", AsOf: "2024-01-03"}
	require.NoError(t, p.SaveStats(want))

	s := New(p, nil, Options{Log: logging.Discard(), Now: func() time.Time { return now }})
	assert.Equal(t, want, s.Stats(context.Background()))
}

func TestValuation(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()
	for _, id := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		s.Save(ctx, deposit(id, id))
	}

	v := s.Valuation(ctx)
	assert.Equal(t, 3.0, v.CompoundValue)
	assert.Equal(t, 1.0, v.Multiplier)
	assert.Len(t, v.GrowthCurve, 3)
	assert.Len(t, v.Projection, 30)

	st := s.Stats(ctx)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 3, st.TotalDeposits)
}

func TestSaveAnalysis(t *testing.T) {
	m := remote.NewMemory()
	s := newService(t, m)
	ctx := context.Background()

	_, up := s.Save(ctx, deposit("2024-01-03", "deposit"))
	require.NoError(t, waitUpload(t, up))

	assert.True(t, s.SaveAnalysis(ctx, "2024-01-03", "solid"))
	assert.Equal(t, "solid", s.Read(ctx, "2024-01-03").Analysis)
	r, _ := m.Row("2024-01-03")
	require.NotNil(t, r.Analysis)
	assert.Equal(t, "solid", *r.Analysis)

	assert.False(t, s.SaveAnalysis(ctx, "2023-01-01", "nothing here"))

	m.FailAnalysis = errors.New("offline")
	assert.True(t, s.SaveAnalysis(ctx, "2024-01-03", "local only"))
	assert.Equal(t, "local only", s.Read(ctx, "2024-01-03").Analysis)
	assert.Empty(t, s.PendingIDs(), "analysis failures are not queued")
}

func TestSyncFlushesPendingEntry(t *testing.T) {
	m := remote.NewMemory()
	m.SetFailures(errors.New("offline"), nil)
	s := newService(t, m)
	ctx := context.Background()

	_, up := s.Save(ctx, deposit("2024-01-03", "written offline"))
	require.Error(t, waitUpload(t, up))
	require.Equal(t, []string{"2024-01-03"}, s.PendingIDs())

	m.SetFailures(nil, nil)
	res := s.SyncResult(ctx)
	require.NoError(t, res.Err)
	assert.False(t, res.Changed)
	assert.Empty(t, s.PendingIDs())
	_, ok := m.Row("2024-01-03")
	assert.True(t, ok)
	assert.True(t, s.LastSync().Equal(now))
	assert.False(t, s.Sync(ctx))
}

func TestSyncWithoutCloud(t *testing.T) {
	s := newService(t, nil)
	res := s.SyncResult(context.Background())
	assert.True(t, res.Skipped)
	assert.False(t, res.Changed)
}

func TestReport(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()

	a := deposit("2023-12-30", "a")
	a.Health[entry.Reading] = true
	a.Energy = 4
	b := deposit("2024-01-01", "b")
	b.Health[entry.Reading] = true
	b.Health[entry.Exercised] = true
	b.Energy = 2
	c := deposit("2024-01-02", "c")
	outside := deposit("2024-02-01", "outside")
	for _, e := range []*entry.Entry{a, b, c, outside} {
		s.Save(ctx, e)
	}

	r := s.Report(ctx, entry.MustParse("2024-01-02"), entry.MustParse("2023-12-29"))
	assert.Equal(t, "2023-12-29", r.Since.String())
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Missed)
	require.Len(t, r.Sections, 2)
	assert.Equal(t, "2023-12", r.Sections[0].Month)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, entry.IDs(r.Sections[1].Entries))
	assert.Equal(t, []HabitCount{{Habit: entry.Reading, Days: 2}, {Habit: entry.Exercised, Days: 1}}, r.Habits)
	assert.Equal(t, 3.0, r.AverageEnergy)
}

func TestOpenMirror(t *testing.T) {
	ctx := context.Background()

	m, err := OpenMirror(ctx, remote.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = OpenMirror(ctx, remote.Config{Driver: remote.DriverSupabase, URL: "https://x.supabase.co"}, nil)
	assert.ErrorIs(t, err, remote.ErrNotConfigured)

	_, err = OpenMirror(ctx, remote.Config{Driver: "redis", DSN: "localhost"}, nil)
	assert.ErrorIs(t, err, remote.ErrNotConfigured)

	m, err = OpenMirror(ctx, remote.Config{Driver: remote.DriverSupabase, URL: "https://x.supabase.co", Key: "anon"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &supabase.Mirror{}, m)
	require.NoError(t, m.Close())
}
