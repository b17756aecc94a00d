package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/runner/cloud"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addSync(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: base.Wrap80("Reconcile the local journal with the cloud. Newer edits win and entries missing on either side are copied over."),
		Example: `
compound sync
compound sync --json
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

			c := cloud.Sync{
				Service: s.Service,
				Out:     outOf(cmd),
				JSON:    oo.JSON,
			}
			err = c.Do(ctx)
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
