package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/commands/options"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

var (
	oo = &base.OutputOptions{}
	lo = &options.LogOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "compound",
		Short: base.Wrap80("A daily deposit journal. Write one entry a day and watch the habit compound."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddLogArgs(cmd, lo)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addDeposit(topLevel)
	addGet(topLevel)
	addList(topLevel)
	addToday(topLevel)
	addStats(topLevel)
	addValue(topLevel)
	addReport(topLevel)
	addAnalysis(topLevel)
	addSync(topLevel)
	addDaemon(topLevel)
	addInfo(topLevel)
	addVersion(topLevel)
	addUpgrade(topLevel)
	addCompletions(topLevel)
}
