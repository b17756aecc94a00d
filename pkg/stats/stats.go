// Package stats derives streak and count figures from the set of deposits.
package stats

import (
	"sort"

	"tableflip.dev/compound/pkg/entry"
)

// Stats summarizes the deposit history as of a given day.
type Stats struct {
	TotalDeposits int    `json:"totalDeposits"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	StartDate     string `json:"startDate,omitempty"`
	// AsOf is the day the figures were computed for.
	AsOf string `json:"asOf,omitempty"`
}

// Compute recomputes every figure from scratch. Entries whose id is not a
// valid day still count as deposits but never extend a streak.
func Compute(entries []*entry.Entry, today entry.Day) Stats {
	s := Stats{AsOf: today.String()}
	ids := entry.IDs(entries)
	if len(ids) == 0 {
		return s
	}
	sort.Strings(ids)

	s.TotalDeposits = len(ids)
	s.StartDate = ids[0]

	days := Days(ids)
	s.CurrentStreak = CurrentStreak(days, today)
	for _, run := range Runs(days) {
		if run > s.LongestStreak {
			s.LongestStreak = run
		}
	}
	return s
}

// Days parses ids into days in ascending order, dropping ids that do not
// parse and collapsing duplicates.
func Days(ids []string) []entry.Day {
	seen := make(map[entry.Day]struct{}, len(ids))
	days := make([]entry.Day, 0, len(ids))
	for _, id := range ids {
		d, err := entry.Parse(id)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Runs returns, for each of the ascending days, the length of the streak of
// consecutive days ending on it.
func Runs(days []entry.Day) []int {
	runs := make([]int, len(days))
	for i, d := range days {
		if i > 0 && d.Sub(days[i-1]) == 1 {
			runs[i] = runs[i-1] + 1
			continue
		}
		runs[i] = 1
	}
	return runs
}

// CurrentStreak counts consecutive days with a deposit ending today, or ending
// yesterday when today has none yet.
func CurrentStreak(days []entry.Day, today entry.Day) int {
	has := make(map[entry.Day]struct{}, len(days))
	for _, d := range days {
		has[d] = struct{}{}
	}
	check := today
	if _, ok := has[check]; !ok {
		check = today.Add(-1)
		if _, ok := has[check]; !ok {
			return 0
		}
	}
	streak := 0
	for {
		if _, ok := has[check]; !ok {
			return streak
		}
		streak++
		check = check.Add(-1)
	}
}
