package options

import (
	"github.com/spf13/cobra"
)

// ListOptions
type ListOptions struct {
	Asc bool
}

func AddListArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().BoolVar(&o.Asc, "asc", false,
		"Oldest deposit first.")
}

// ValueOptions
type ValueOptions struct {
	Curve      bool
	Projection bool
}

func AddValueArgs(cmd *cobra.Command, o *ValueOptions) {
	cmd.Flags().BoolVar(&o.Curve, "curve", false,
		"Show the growth curve since the first deposit.")
	cmd.Flags().BoolVar(&o.Projection, "projection", false,
		"Show the value over the next 30 days if you keep depositing.")
}

// DaemonOptions
type DaemonOptions struct {
	Schedule    string
	MetricsAddr string
}

func AddDaemonArgs(cmd *cobra.Command, o *DaemonOptions) {
	cmd.Flags().StringVar(&o.Schedule, "schedule", "",
		`Cron schedule for syncing, example: --schedule="@every 5m". Defaults to sync.schedule from the config.`)
	cmd.Flags().StringVar(&o.MetricsAddr, "metrics-addr", "",
		`Serve Prometheus metrics on this address, example: --metrics-addr=":9464".`)
}
