package printers

import (
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/compound/pkg/entry"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Month prints the calendar of the month containing then, with deposited
// days in bold.
func (pp *PrettyPrint) Month(then entry.Day, deposited []entry.Day) {
	count := make([]int, then.DaysInMonth())
	for _, d := range deposited {
		if d.Year() == then.Year() && d.Month() == then.Month() {
			count[d.DayOfMonth()-1]++
		}
	}
	pp.MonthCount(then, count)
}

// MonthCount prints a month grid where days with a non-zero count stand out.
func (pp *PrettyPrint) MonthCount(then entry.Day, count []int) {
	first := entry.NewDay(then.Year(), then.Month(), 1)
	d := first.Weekday()

	tf := color.New(color.FgWhite, color.Italic)

	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(pp.out(), "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	// Pad out the start of the month.
	_, _ = pp.out().Write([]byte(strings.Repeat("   ", int(d-time.Sunday))))

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiGreen)

	for i := 0; i < first.DaysInMonth(); i++ {
		if i < len(count) && count[i] > 0 {
			_, _ = l2.Fprintf(pp.out(), "%2d ", i+1)
		} else {
			_, _ = l1.Fprintf(pp.out(), "%2d ", i+1)
		}

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = pp.out().Write([]byte("\n"))
		}
	}
	_, _ = pp.out().Write([]byte("\n\n"))
}
