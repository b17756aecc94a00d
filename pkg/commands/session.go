package commands

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/config"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/store"
)

// session is the state one command invocation owns.
type session struct {
	Config  *config.Config
	Log     *logrus.Logger
	Metrics *metrics.Collector
	Service *app.Service
}

// open loads the config, the local store and, when configured, the mirror.
// A mirror that fails to open is logged and the session runs local only.
func open(ctx context.Context, mc *metrics.Collector) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if lo.Level != "" {
		level = lo.Level
	}
	log, err := logging.New(level, cfg.Log.Format, nil)
	if err != nil {
		return nil, err
	}
	p, err := store.Load(cfg, log)
	if err != nil {
		return nil, err
	}
	m, err := app.OpenMirror(ctx, cfg.Remote, nil)
	if err != nil {
		log.WithError(err).Warn("cloud sync disabled")
		m = nil
	}
	return &session{
		Config:  cfg,
		Log:     log,
		Metrics: mc,
		Service: app.New(p, m, app.Options{Log: log, Metrics: mc}),
	}, nil
}

// Close gives queued uploads up to wait to finish. Anything still queued is
// retried by the next sync.
func (s *session) Close(wait time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := s.Service.Close(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.Log.Info("cloud save still running, it will be retried on the next sync")
			return
		}
		s.Log.WithError(err).Warn("closing")
	}
}

// closeWait is how long a session waits on close.
func (s *session) closeWait() time.Duration {
	if s.Config.Sync.Wait > 0 {
		return s.Config.Sync.Wait
	}
	return 10 * time.Second
}
