package get

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/printers"
)

// Get prints the deposit for one day.
type Get struct {
	Service *app.Service
	// Day is a YYYY-MM-DD date, "today" or "yesterday". Empty means today.
	Day  string
	JSON bool
	Out  io.Writer
}

func (n *Get) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not get, no service")
	}
	day, err := Resolve(n.Day, entry.DayOf(n.Service.Now()))
	if err != nil {
		return err
	}
	e := n.Service.Read(ctx, day.String())

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return pp.JSON(e)
	}
	if e == nil {
		pp.Status(fmt.Sprintf("no deposit for %s", day), color.New(color.Faint, color.Italic))
		return nil
	}
	pp.Entry(e)
	return nil
}

// Resolve turns a day argument into a Day relative to today.
func Resolve(arg string, today entry.Day) (entry.Day, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.Add(-1), nil
	default:
		return entry.Parse(arg)
	}
}

// List prints every deposit.
type List struct {
	Service *app.Service
	// Asc lists oldest first.
	Asc   bool
	Width int
	JSON  bool
	Out   io.Writer
}

func (n *List) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not list, no service")
	}
	all := n.Service.Sorted(ctx, !n.Asc)

	pp := printers.PrettyPrint{Out: n.Out, Width: n.Width}
	if n.JSON {
		return pp.JSON(all)
	}
	if len(all) == 0 {
		pp.Status("No deposits yet. Make your first one with: compound deposit <text>", color.New(color.Italic))
		return nil
	}
	pp.TitleWithCount("Deposits", len(all))
	pp.Entries(all...)
	return nil
}

// Today prints today's deposit, or yesterday's plan for today when there is
// none yet.
type Today struct {
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

// TodayResult is what Today prints as JSON.
type TodayResult struct {
	Entry      *entry.Entry `json:"entry"`
	Planned    string       `json:"planned,omitempty"`
	FirstVisit bool         `json:"firstVisit"`
}

func (n *Today) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not get today, no service")
	}
	res := TodayResult{
		Entry:      n.Service.Today(ctx),
		FirstVisit: n.Service.FirstVisit(ctx),
	}
	if y := n.Service.Yesterday(ctx); y != nil {
		res.Planned = y.Tomorrow
	}

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return pp.JSON(res)
	}
	if res.FirstVisit {
		pp.Status("Welcome. Every day you deposit compounds. Start with: compound deposit <text>", color.New(color.Bold))
		return nil
	}
	if res.Planned != "" {
		pp.Status("planned yesterday: "+res.Planned, color.New(color.FgCyan))
	}
	if res.Entry == nil {
		pp.Status("nothing deposited today", color.New(color.Faint, color.Italic))
		return nil
	}
	pp.Entry(res.Entry)
	return nil
}
