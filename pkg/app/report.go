package app

import (
	"context"
	"sort"

	"tableflip.dev/compound/pkg/entry"
)

// HabitCount tallies how often a habit was ticked.
type HabitCount struct {
	Habit entry.Habit `json:"habit"`
	Days  int         `json:"days"`
}

// ReportSection groups the deposits of one month.
type ReportSection struct {
	Month   string         `json:"month"`
	Entries []*entry.Entry `json:"entries"`
}

// ReportResult summarizes the deposits between two days, inclusive.
type ReportResult struct {
	Since    entry.Day       `json:"since"`
	Until    entry.Day       `json:"until"`
	Sections []ReportSection `json:"sections"`
	Total    int             `json:"total"`
	// Missed counts days in the window without a deposit.
	Missed int          `json:"missed"`
	Habits []HabitCount `json:"habits"`
	// AverageEnergy is taken over deposits that recorded an energy level.
	AverageEnergy float64 `json:"averageEnergy"`
}

// Report returns the deposits made between since and until, grouped by month.
func (s *Service) Report(ctx context.Context, since, until entry.Day) ReportResult {
	if since.After(until) {
		since, until = until, since
	}
	res := ReportResult{Since: since, Until: until, Sections: []ReportSection{}}

	tally := make(map[entry.Habit]int)
	energySum, energyDays := 0, 0
	byMonth := make(map[string]*ReportSection)
	var months []string
	for _, e := range s.Sorted(ctx, false) {
		d, err := e.Day()
		if err != nil || d.Before(since) || d.After(until) {
			continue
		}
		res.Total++
		for _, h := range e.Health.Done() {
			tally[h]++
		}
		if e.Energy > 0 {
			energySum += e.Energy
			energyDays++
		}
		month := e.ID[:7]
		section, ok := byMonth[month]
		if !ok {
			section = &ReportSection{Month: month}
			byMonth[month] = section
			months = append(months, month)
		}
		section.Entries = append(section.Entries, e)
	}

	for _, m := range months {
		res.Sections = append(res.Sections, *byMonth[m])
	}
	res.Missed = until.Sub(since) + 1 - res.Total
	if energyDays > 0 {
		res.AverageEnergy = float64(energySum) / float64(energyDays)
	}
	for _, h := range entry.Habits() {
		if n := tally[h]; n > 0 {
			res.Habits = append(res.Habits, HabitCount{Habit: h, Days: n})
		}
	}
	sort.SliceStable(res.Habits, func(i, j int) bool { return res.Habits[i].Days > res.Habits[j].Days })
	return res
}
