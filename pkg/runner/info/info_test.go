package info

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/config"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/store"
)

func init() {
	color.NoColor = true
}

func setup(t *testing.T, m remote.Mirror) (*config.Config, *app.Service) {
	t.Helper()
	cfg := &config.Config{
		Path:   t.TempDir(),
		Remote: remote.Config{Driver: remote.DriverSupabase, URL: "https://demo.supabase.co", Key: "anon-secret"},
	}
	p, err := store.Load(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.Store(entry.New(entry.MustParse("2024-01-01"), "one", time.Now())); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := p.MarkPending("2024-01-01"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	s := app.New(p, m, app.Options{Log: logging.Discard()})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return cfg, s
}

func TestInfoJSON(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "/etc/compound")
	cfg, svc := setup(t, remote.NewMemory())

	var buf bytes.Buffer
	if err := (&Info{Config: cfg, Service: svc, JSON: true, Out: &buf}).Do(context.Background()); err != nil {
		t.Fatalf("info: %v", err)
	}
	if strings.Contains(buf.String(), "anon-secret") {
		t.Fatalf("key leaked: %s", buf.String())
	}
	var d Details
	if err := json.Unmarshal(buf.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.ConfigPathEnv != "/etc/compound" || d.Path != cfg.Path || d.Deposits != 1 || !d.Cloud {
		t.Errorf("unexpected details %+v", d)
	}
	if d.DeviceID == "" {
		t.Errorf("expected a device id")
	}
	if len(d.Pending) != 1 || d.Pending[0] != "2024-01-01" {
		t.Errorf("unexpected pending %v", d.Pending)
	}
}

func TestInfoPretty(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	cfg, svc := setup(t, nil)

	var buf bytes.Buffer
	if err := (&Info{Config: cfg, Service: svc, Out: &buf}).Do(context.Background()); err != nil {
		t.Fatalf("info: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"not set", cfg.Path, "off", "2024-01-01", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
