package commands

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/config"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/store"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(compound completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(compound completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(cmd.OutOrStdout())
		},
	}

	topLevel.AddCommand(cmd)
}

// dayCompletions offers the days that have a deposit, newest first.
func dayCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	p, err := store.Load(cfg, logging.Discard())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	all := p.ListAll(contextOf(cmd))
	entry.Sort(all, true)
	days := []string{"today", "yesterday"}
	for _, id := range entry.IDs(all) {
		if strings.HasPrefix(id, toComplete) {
			days = append(days, id)
		}
	}
	return days, cobra.ShellCompDirectiveNoFileComp
}

func habitCompletions() []string {
	habits := entry.Habits()
	names := make([]string, 0, len(habits))
	for _, h := range habits {
		names = append(names, string(h))
	}
	return names
}

// contextOf returns the command's context, which is unset when the command
// is not run through ExecuteContext.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outOf returns where a runner should print. Stdout goes through
// color.Output so colors work on every platform.
func outOf(cmd *cobra.Command) io.Writer {
	if out := cmd.OutOrStdout(); out != os.Stdout {
		return out
	}
	return color.Output
}

// terminalWidth reads $COLUMNS, or returns zero to leave lines untruncated.
func terminalWidth() int {
	n, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
