package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/runner/info"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the journal, where it is stored and how it syncs.",
		Example: `
compound info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			i := info.Info{
				Config:  s.Config,
				Service: s.Service,
				Out:     outOf(cmd),
				JSON:    oo.JSON,
			}
			err = i.Do(ctx)
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
