package deposit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

type testConfig struct{ path string }

func (c testConfig) BasePath() string { return c.path }

var now = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, m remote.Mirror) *app.Service {
	t.Helper()
	p, err := store.Load(testConfig{path: t.TempDir()}, logging.Discard())
	require.NoError(t, err)
	s := app.New(p, m, app.Options{
		Log: logging.Discard(),
		Now: func() time.Time { return now },
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func run(t *testing.T, d *Deposit) (Result, error) {
	t.Helper()
	var buf bytes.Buffer
	d.Out = &buf
	d.JSON = true
	if err := d.Do(context.Background()); err != nil {
		return Result{}, err
	}
	var res Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	return res, nil
}

func TestDepositLocalOnly(t *testing.T) {
	svc := newService(t, nil)
	res, err := run(t, &Deposit{
		Service:  svc,
		Text:     "walked to work",
		Health:   []string{"reading", "Exercised"},
		Energy:   3,
		Tomorrow: "swim",
	})
	require.NoError(t, err)

	assert.Equal(t, CloudOff, res.Cloud)
	assert.Equal(t, "2024-01-03", res.Entry.ID)

	stored := svc.Today(context.Background())
	require.NotNil(t, stored)
	assert.Equal(t, "walked to work", stored.Text)
	assert.True(t, stored.Health[entry.Reading])
	assert.True(t, stored.Health[entry.Exercised])
	assert.False(t, stored.Health[entry.Meditation])
	assert.Equal(t, 3, stored.Energy)
	assert.Equal(t, "swim", stored.Tomorrow)
}

func TestDepositWaitsForCloud(t *testing.T) {
	m := remote.NewMemory()
	svc := newService(t, m)
	res, err := run(t, &Deposit{Service: svc, Text: "cloud day", Wait: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, CloudSaved, res.Cloud)
	row, ok := m.Row("2024-01-03")
	require.True(t, ok)
	assert.Equal(t, "cloud day", row.Text)
	assert.Empty(t, svc.PendingIDs())
}

func TestDepositCloudFailure(t *testing.T) {
	m := remote.NewMemory()
	m.FailUpsert = errors.New("offline")
	svc := newService(t, m)
	res, err := run(t, &Deposit{Service: svc, Text: "offline day", Wait: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, CloudFailed, res.Cloud)
	assert.Equal(t, "offline", res.Error)
	assert.Equal(t, []string{"2024-01-03"}, svc.PendingIDs())
	assert.NotNil(t, svc.Today(context.Background()))
}

func TestDepositWithoutWaiting(t *testing.T) {
	svc := newService(t, remote.NewMemory())
	res, err := run(t, &Deposit{Service: svc, Text: "quick"})
	require.NoError(t, err)
	assert.Equal(t, CloudQueued, res.Cloud)
}

func TestDepositBackfill(t *testing.T) {
	svc := newService(t, nil)
	_, err := run(t, &Deposit{Service: svc, Day: entry.MustParse("2024-01-01"), Text: "late"})
	require.NoError(t, err)
	assert.Nil(t, svc.Today(context.Background()))
	assert.NotNil(t, svc.Read(context.Background(), "2024-01-01"))
}

func TestDepositRejects(t *testing.T) {
	tests := map[string]*Deposit{
		"empty text":    {Text: "  "},
		"unknown habit": {Text: "x", Health: []string{"napping"}},
		"energy":        {Text: "x", Energy: 9},
		"future":        {Text: "x", Day: entry.MustParse("2024-01-04")},
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			svc := newService(t, nil)
			d.Service = svc
			_, err := run(t, d)
			require.Error(t, err)
			assert.True(t, svc.FirstVisit(context.Background()))
		})
	}
}

func TestDepositPrettyOutput(t *testing.T) {
	svc := newService(t, nil)
	var buf bytes.Buffer
	d := &Deposit{Service: svc, Text: "pretty", Out: &buf}
	require.NoError(t, d.Do(context.Background()))

	out := buf.String()
	assert.True(t, strings.Contains(out, "2024-01-03"), out)
	assert.True(t, strings.Contains(out, "pretty"), out)
	assert.True(t, strings.HasSuffix(out, "deposited\n"), out)
}
