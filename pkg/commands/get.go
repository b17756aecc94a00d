package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/commands/options"
	"tableflip.dev/compound/pkg/runner/get"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addGet(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "get [day]",
		Short: "Show the deposit for a day.",
		Example: `
compound get
compound get yesterday
compound get 2024-01-31
`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: dayCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			g := get.Get{
				Service: s.Service,
				Out:     outOf(cmd),
				JSON:    oo.JSON,
			}
			if len(args) > 0 {
				g.Day = args[0]
			}
			err = g.Do(ctx)
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command) {
	lso := &options.ListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every deposit, newest first.",
		Example: `
compound list
compound list --asc
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

			l := get.List{
				Service: s.Service,
				Out:     outOf(cmd),
				Asc:     lso.Asc,
				Width:   terminalWidth(),
				JSON:    oo.JSON,
			}
			err = l.Do(ctx)
			return oo.HandleError(err)
		},
	}

	options.AddListArgs(cmd, lso)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addToday(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's deposit and what you planned for today.",
		Example: `
compound today
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

			t := get.Today{
				Service: s.Service,
				Out:     outOf(cmd),
				JSON:    oo.JSON,
			}
			err = t.Do(ctx)
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
