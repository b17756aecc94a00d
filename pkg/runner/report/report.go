package report

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/printers"
	"tableflip.dev/compound/pkg/timeutil"
)

// Report summarizes the deposits of a trailing window ending today.
type Report struct {
	Service *app.Service
	// Last is a window such as "1w" or "30d".
	Last  string
	Width int
	JSON  bool
	Out   io.Writer
}

func (n *Report) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not report, no service")
	}
	days, label, err := timeutil.ParseWindow(n.Last)
	if err != nil {
		return err
	}
	until := entry.DayOf(n.Service.Now())
	since := until.Add(1 - days)
	result := n.Service.Report(ctx, since, until)

	pp := printers.PrettyPrint{Out: n.Out, Width: n.Width}
	if n.JSON {
		return pp.JSON(result)
	}
	pp.Report(result, label)
	return nil
}
