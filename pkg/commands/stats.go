package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/commands/options"
	"tableflip.dev/compound/pkg/runner/summary"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addStats(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show deposit count and streaks.",
		Example: `
compound stats
compound stats --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			st := summary.Stats{
				Service: s.Service,
				Out:     outOf(cmd),
				JSON:    oo.JSON,
			}
			err = st.Do(ctx)
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addValue(topLevel *cobra.Command) {
	vo := &options.ValueOptions{}

	cmd := &cobra.Command{
		Use:   "value",
		Short: base.Wrap80("Show what your deposits are worth today, compounded daily with a bonus for streaks."),
		Example: `
compound value
compound value --curve --projection
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			v := summary.Value{
				Service:    s.Service,
				Out:        outOf(cmd),
				Curve:      vo.Curve,
				Projection: vo.Projection,
				JSON:       oo.JSON,
			}
			err = v.Do(ctx)
			return oo.HandleError(err)
		},
	}

	options.AddValueArgs(cmd, vo)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
