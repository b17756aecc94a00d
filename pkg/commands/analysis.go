package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/runner/analysis"
	"tableflip.dev/compound/pkg/runner/get"
)

func addAnalysis(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "analysis <day> <text>",
		Short: "Attach an analysis to a deposit.",
		Example: `
compound analysis yesterday steady week, energy trending up
compound analysis 2024-01-31 "first month done"
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires a day and the analysis text")
			}
			return nil
		},
		ValidArgsFunction: dayCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := contextOf(cmd)
			s, err := open(ctx, nil)
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close(s.closeWait())

			day, err := get.Resolve(args[0], entry.DayOf(s.Service.Now()))
			if err != nil {
				return oo.HandleError(err)
			}
			a := analysis.Analysis{
				Service: s.Service,
				Out:     outOf(cmd),
				Day:     day,
				Text:    strings.Join(args[1:], " "),
			}
			err = a.Do(ctx)
			return oo.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
