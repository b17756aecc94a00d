package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/commands/options"
	"tableflip.dev/compound/pkg/metrics"
	"tableflip.dev/compound/pkg/runner/daemon"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addDaemon(topLevel *cobra.Command) {
	dmo := &options.DaemonOptions{}

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: base.Wrap80("Keep the journal in sync in the background until interrupted."),
		Example: `
compound daemon
compound daemon --schedule "@every 5m" --metrics-addr :9464
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			var mc *metrics.Collector
			if dmo.MetricsAddr != "" {
				mc = metrics.New()
			}
			s, err := open(ctx, mc)
			if err != nil {
				return err
			}
			defer s.Close(s.closeWait())

			schedule := dmo.Schedule
			if schedule == "" {
				schedule = s.Config.Sync.Schedule
			}
			d := daemon.Daemon{
				Service:     s.Service,
				Schedule:    schedule,
				MetricsAddr: dmo.MetricsAddr,
				Metrics:     mc,
				Log:         s.Log,
			}
			return d.Do(ctx)
		},
	}

	options.AddDaemonArgs(cmd, dmo)
	topLevel.AddCommand(cmd)
}
