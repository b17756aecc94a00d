package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/commands/options"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/runner/deposit"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addDeposit(topLevel *cobra.Command) {
	do := &options.DepositOptions{}
	dayo := &options.DayOptions{}

	cmd := &cobra.Command{
		Use:     "deposit [text]",
		Aliases: []string{"add", "d"},
		Short:   base.Wrap80("Make today's deposit. Saving again the same day replaces it."),
		Example: `
compound deposit shipped the sync engine
compound deposit --health sleptEarly,reading --energy 4 --tomorrow "write docs" a good day
compound deposit --date yesterday forgot to write this one
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires the text of the deposit")
			}
			do.Text = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			day, err := dayo.GetDay(entry.DayOf(s.Service.Now()))
			if err != nil {
				return oo.HandleError(err)
			}
			wait := do.Wait
			if wait == 0 {
				wait = s.Config.Sync.Wait
			}
			if do.NoWait {
				wait = 0
			}
			d := deposit.Deposit{
				Service:  s.Service,
				Out:      outOf(cmd),
				Day:      day,
				Text:     do.Text,
				Health:   do.Health,
				Energy:   do.Energy,
				Tomorrow: do.Tomorrow,
				Wait:     wait,
				JSON:     oo.JSON,
			}
			err = d.Do(ctx)
			return oo.HandleError(err)
		},
	}

	options.AddDepositArgs(cmd, do)
	options.AddDayArgs(cmd, dayo)
	_ = cmd.RegisterFlagCompletionFunc("health", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return habitCompletions(), cobra.ShellCompDirectiveNoFileComp
	})
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
