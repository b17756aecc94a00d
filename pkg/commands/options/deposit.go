package options

import (
	"time"

	"github.com/spf13/cobra"
)

// DepositOptions
type DepositOptions struct {
	Text     string
	Health   []string
	Energy   int
	Tomorrow string
	NoWait   bool
	Wait     time.Duration
}

func AddDepositArgs(cmd *cobra.Command, o *DepositOptions) {
	cmd.Flags().StringSliceVar(&o.Health, "health", nil,
		"Habits done today, example: --health=sleptEarly,reading. One of sleptEarly, wokeEarly, reading, sideProject, exercised, meditation.")
	cmd.Flags().IntVarP(&o.Energy, "energy", "e", 0,
		"Energy level from 1 to 5.")
	cmd.Flags().StringVarP(&o.Tomorrow, "tomorrow", "t", "",
		"What you plan to do tomorrow.")
	cmd.Flags().BoolVar(&o.NoWait, "no-wait", false,
		"Do not wait for the cloud save to finish.")
	cmd.Flags().DurationVar(&o.Wait, "wait", 0,
		"How long to wait for the cloud save. Defaults to sync.wait from the config.")
}
