package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/config"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/logging"
	"tableflip.dev/compound/pkg/store"
)

var demoTexts = []string{
	"Read two chapters before bed.",
	"Fixed the flaky test that has been bugging me all week.",
	"Long walk, no phone.",
	"Sketched the plan for the side project.",
	"Cooked instead of ordering in.",
	"Went to bed early, woke up rested.",
	"Wrote a page in the journal about the month so far.",
}

func main() {
	if err := newCommand().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}

func newCommand() *cobra.Command {
	var days, skip int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed the configured journal with a run of sample deposits ending today.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			return seed(cmd.Context(), cmd.OutOrStdout(), days, skip)
		},
	}
	cmd.Flags().IntVar(&days, "days", 21, "Number of consecutive days to seed.")
	cmd.Flags().IntVar(&skip, "skip", 5, "Leave a gap every n days, zero for none.")
	return cmd
}

func seed(ctx context.Context, out io.Writer, days, skip int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	quiet := logging.Discard()
	p, err := store.Load(cfg, quiet)
	if err != nil {
		return err
	}
	svc := app.New(p, nil, app.Options{Log: quiet})
	defer func() { _ = svc.Close(context.Background()) }()

	today := entry.DayOf(time.Now())
	habits := entry.Habits()
	for i := days - 1; i >= 0; i-- {
		if skip > 0 && i > 0 && i%skip == 0 {
			continue
		}
		e := entry.New(today.Add(-i), demoTexts[i%len(demoTexts)], time.Now())
		e.Energy = 1 + i%entry.MaxEnergy
		e.Health[habits[i%len(habits)]] = true
		e.Tomorrow = demoTexts[(i+1)%len(demoTexts)]
		svc.Save(ctx, e)
	}

	s := svc.Stats(ctx)
	v := svc.Valuation(ctx)
	_, _ = fmt.Fprintf(out, "seeded %s: %d deposits, streak %d, value %.1f\n", cfg.BasePath(), s.TotalDeposits, s.CurrentStreak, v.CompoundValue)
	return nil
}
