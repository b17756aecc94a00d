package entry

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayFormat is the canonical layout of an entry id.
const DayFormat = "2006-01-02"

const readDayFormat = "2006-1-2"

// Day is a calendar date with no time of day and no zone.
type Day struct {
	y int
	m time.Month
	d int
}

// NewDay returns a normalized Day, so 2024-01-32 becomes 2024-02-01.
func NewDay(year int, month time.Month, day int) Day {
	d := Day{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// DayOf returns the calendar day t falls on in t's own location.
func DayOf(t time.Time) Day { return NewDay(t.Date()) }

// Parse reads a Day. It accepts single digit months and days.
func Parse(s string) (Day, error) {
	on, err := time.Parse(readDayFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("entry: invalid day %q want format %q: %w", s, DayFormat, err)
	}
	return NewDay(on.Date()), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Day {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Day) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d == Day{} }

// Add returns d moved by n days.
func (d Day) Add(n int) Day { return NewDay(d.y, d.m, d.d+n) }

// Sub returns the number of whole days from x to d.
func (d Day) Sub(x Day) int {
	return int(d.time().Sub(x.time()).Hours() / 24)
}

// Before reports whether d is before x.
func (d Day) Before(x Day) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Day) After(x Day) bool { return d.time().After(x.time()) }

// Year returns the year of d.
func (d Day) Year() int { return d.y }

// Month returns the month of d.
func (d Day) Month() time.Month { return d.m }

// Weekday returns the day of the week d falls on.
func (d Day) Weekday() time.Weekday { return d.time().Weekday() }

// DaysInMonth returns how many days the month of d has.
func (d Day) DaysInMonth() int { return NewDay(d.y, d.m+1, 0).d }

// DayOfMonth returns the day of the month of d.
func (d Day) DayOfMonth() int { return d.d }

// String formats d as YYYY-MM-DD.
func (d Day) String() string { return d.time().Format(DayFormat) }

// Label is the short month/day form used on curve axes.
func (d Day) Label() string { return fmt.Sprintf("%d/%d", int(d.m), d.d) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var _ json.Marshaler = Day{}
var _ json.Unmarshaler = (*Day)(nil)
