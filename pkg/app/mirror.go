package app

import (
	"context"
	"fmt"
	"net/http"

	"tableflip.dev/compound/pkg/remote"
	"tableflip.dev/compound/pkg/remote/sqlmirror"
	"tableflip.dev/compound/pkg/remote/supabase"
)

// OpenMirror connects the mirror selected by cfg. An empty driver means the
// cloud is off and returns a nil Mirror without error. httpClient is only used
// by the supabase driver and may be nil.
func OpenMirror(ctx context.Context, cfg remote.Config, httpClient *http.Client) (remote.Mirror, error) {
	if cfg.Driver == "" {
		return nil, nil
	}
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: driver %q is missing its settings", remote.ErrNotConfigured, cfg.Driver)
	}
	if cfg.Driver == remote.DriverSupabase {
		m, err := supabase.Open(cfg, httpClient)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := sqlmirror.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}
