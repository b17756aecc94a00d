package options

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/compound/pkg/entry"
)

const (
	layoutISOShort = "1/2"
)

// DayOptions selects the day a command acts on.
type DayOptions struct {
	DateString string
}

func AddDayArgs(cmd *cobra.Command, o *DayOptions) {
	cmd.Flags().StringVar(&o.DateString, "date", "",
		`Specify a day, example: --date="2024-02-28" or --date="2/28". Defaults to today.`)
}

// GetDay resolves the flag against today. A zero Day means none was given.
func (o *DayOptions) GetDay(today entry.Day) (entry.Day, error) {
	s := strings.TrimSpace(o.DateString)
	switch strings.ToLower(s) {
	case "":
		return entry.Day{}, nil
	case "today":
		return today, nil
	case "yesterday":
		return today.Add(-1), nil
	}
	d, err := entry.Parse(s)
	if err == nil {
		return d, nil
	}
	t, shortErr := time.Parse(layoutISOShort, s)
	if shortErr != nil {
		return entry.Day{}, err
	}
	// Let the year be the same. A short date past today means last year, since
	// deposits are only ever made for the past.
	d = entry.NewDay(today.Year(), t.Month(), t.Day())
	if d.After(today) {
		d = entry.NewDay(today.Year()-1, t.Month(), t.Day())
	}
	return d, nil
}
