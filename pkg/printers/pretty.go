package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/stats"
	"tableflip.dev/compound/pkg/syncer"
	"tableflip.dev/compound/pkg/valuation"
)

type PrettyPrint struct {
	// Out defaults to color.Output.
	Out io.Writer
	// Width truncates list lines; zero leaves them whole.
	Width int
}

var (
	spacing = strings.Repeat(" ", len("2006-01-02  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

// JSON writes v as a single line of JSON.
func (pp *PrettyPrint) JSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(pp.out(), string(b))
	return err
}

// Status prints a one line outcome in c.
func (pp *PrettyPrint) Status(msg string, c *color.Color) {
	if c == nil {
		c = color.New()
	}
	_, _ = c.Fprintln(pp.out(), msg)
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " deposit")
	default:
		_, _ = c.Fprintln(pp.out(), " deposits")
	}
}

// Entries prints one line per entry.
func (pp *PrettyPrint) Entries(entries ...*entry.Entry) {
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), spacing+"none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Faint)
	for _, e := range entries {
		_, _ = y.Fprint(pp.out(), e.ID+"  ")
		line := []rune(fmt.Sprintf("%s %s", Energy(e.Energy), firstLine(e.Text)))
		if room := pp.Width - len(spacing); room > 3 && len(line) > room {
			line = append(line[:room-3], []rune("...")...)
		}
		_, _ = fmt.Fprintln(pp.out(), string(line))
	}
	pp.NewLine()
}

// Entry prints every field of a single deposit.
func (pp *PrettyPrint) Entry(e *entry.Entry) {
	if e == nil {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintln(pp.out(), "no deposit")
		return
	}
	label := color.New(color.Faint)
	pp.Title(e.ID)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	if pp.Width > 0 {
		tbl.MaxColWidth = uint(pp.Width - len("tomorrow  "))
	}
	tbl.AddRow(label.Sprint("saved"), e.Timestamp.String())
	tbl.AddRow(label.Sprint("text"), e.Text)
	if done := e.Health.Done(); len(done) > 0 {
		names := make([]string, 0, len(done))
		for _, h := range done {
			names = append(names, string(h))
		}
		tbl.AddRow(label.Sprint("health"), strings.Join(names, ", "))
	}
	if e.Energy > 0 {
		tbl.AddRow(label.Sprint("energy"), Energy(e.Energy))
	}
	if e.Tomorrow != "" {
		tbl.AddRow(label.Sprint("tomorrow"), e.Tomorrow)
	}
	if e.Analysis != "" {
		tbl.AddRow(label.Sprint("analysis"), e.Analysis)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) Stats(s stats.Stats) {
	b := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("deposits", b.Sprint(s.TotalDeposits))
	tbl.AddRow("current streak", b.Sprint(days(s.CurrentStreak)))
	tbl.AddRow("longest streak", days(s.LongestStreak))
	if s.StartDate != "" {
		tbl.AddRow("since", s.StartDate)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Valuation prints the compound value and, on request, its curves.
func (pp *PrettyPrint) Valuation(v valuation.Valuation, curve, projection bool) {
	g := color.New(color.Bold, color.FgGreen)
	_, _ = g.Fprintf(pp.out(), "%.1f", v.CompoundValue)
	_, _ = color.New(color.Faint).Fprintf(pp.out(), "  x%.2f\n", v.Multiplier)

	if curve {
		pp.NewLine()
		pp.Title("Growth")
		pp.points(v.GrowthCurve)
	}
	if projection {
		pp.NewLine()
		pp.Title(fmt.Sprintf("Next %d days", valuation.ProjectionDays))
		pp.points(v.Projection)
	}
}

func (pp *PrettyPrint) points(points []valuation.Point) {
	if len(points) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(pp.out(), "none")
		return
	}
	top := 0.0
	for _, p := range points {
		if p.Value > top {
			top = p.Value
		}
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, p := range points {
		tbl.AddRow(p.Date.Label(), fmt.Sprintf("%.1f", p.Value), bar(p.Value, top, 30))
	}
	tbl.RightAlign(0)
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Sync prints the outcome of a sync run.
func (pp *PrettyPrint) Sync(r syncer.Result, last time.Time) {
	switch {
	case r.Skipped:
		_, _ = color.New(color.Faint).Fprintln(pp.out(), "cloud sync is not configured")
		return
	case r.Err != nil:
		_, _ = color.New(color.FgRed).Fprintf(pp.out(), "sync failed: %v\n", r.Err)
	case r.Changed:
		_, _ = color.New(color.FgGreen).Fprintln(pp.out(), "local journal updated")
	default:
		_, _ = fmt.Fprintln(pp.out(), "already up to date")
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("pulled", r.Pulled)
	tbl.AddRow("merged", r.Merged)
	tbl.AddRow("pushed", r.Pushed)
	tbl.AddRow("retried", r.Flushed)
	if !last.IsZero() {
		tbl.AddRow("last sync", last.Local().Format(time.RFC1123))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Report prints a windowed summary with a calendar per month.
func (pp *PrettyPrint) Report(r app.ReportResult, label string) {
	pp.Title(fmt.Sprintf("Report · last %s (%s → %s)", label, r.Since, r.Until))
	if r.Total == 0 {
		_, _ = fmt.Fprintln(pp.out(), "  No deposits in this window.")
		pp.NewLine()
		return
	}

	for _, section := range r.Sections {
		pp.NewLine()
		first, err := entry.Parse(section.Month + "-01")
		if err == nil {
			deposited := make([]entry.Day, 0, len(section.Entries))
			for _, e := range section.Entries {
				if d, err := e.Day(); err == nil {
					deposited = append(deposited, d)
				}
			}
			pp.Month(first, deposited)
		}
		pp.Entries(section.Entries...)
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("deposits", r.Total)
	tbl.AddRow("missed", days(r.Missed))
	if r.AverageEnergy > 0 {
		tbl.AddRow("energy", fmt.Sprintf("%.1f", r.AverageEnergy))
	}
	for _, h := range r.Habits {
		tbl.AddRow(string(h.Habit), days(h.Days))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Energy renders an energy level as filled and empty dots.
func Energy(level int) string {
	if level <= 0 {
		return strings.Repeat(" ", entry.MaxEnergy)
	}
	if level > entry.MaxEnergy {
		level = entry.MaxEnergy
	}
	return strings.Repeat("●", level) + strings.Repeat("○", entry.MaxEnergy-level)
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func bar(v, top float64, cols int) string {
	if top <= 0 {
		return ""
	}
	n := int(v / top * float64(cols))
	return strings.Repeat("▇", n)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
