package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/runner/report"
	"tableflip.dev/compound/pkg/timeutil"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addReport(topLevel *cobra.Command) {
	var last string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recent deposits by month",
		Long: `Report shows a calendar of the deposits made in a trailing window ending
today, with missed days, habit counts and average energy.

Examples:
  compound report
  compound report --last 30d
  compound report --last 1w3d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			r := report.Report{
				Service: s.Service,
				Out:     outOf(cmd),
				Last:    last,
				Width:   terminalWidth(),
				JSON:    oo.JSON,
			}
			err = r.Do(ctx)
			return oo.HandleError(err)
		},
	}

	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "window to include, for example 3d, 2w or 1mo")
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
