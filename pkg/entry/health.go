package entry

import (
	"fmt"
	"sort"
	"strings"
)

// Habit is one of the fixed health flags a deposit can tick.
type Habit string

const (
	SleptEarly  Habit = "sleptEarly"
	WokeEarly   Habit = "wokeEarly"
	Reading     Habit = "reading"
	SideProject Habit = "sideProject"
	Exercised   Habit = "exercised"
	Meditation  Habit = "meditation"
)

// Habits lists every known habit in display order.
func Habits() []Habit {
	return []Habit{SleptEarly, WokeEarly, Reading, SideProject, Exercised, Meditation}
}

// Valid reports whether h is a known habit.
func (h Habit) Valid() bool {
	for _, known := range Habits() {
		if h == known {
			return true
		}
	}
	return false
}

// HabitForAlias resolves a habit by name, case-insensitively.
func HabitForAlias(s string) (Habit, error) {
	s = strings.TrimSpace(s)
	for _, h := range Habits() {
		if strings.EqualFold(string(h), s) {
			return h, nil
		}
	}
	return "", fmt.Errorf("entry: unknown habit %q", s)
}

// Health maps habits to whether they were done that day.
type Health map[Habit]bool

// ParseHealth builds a Health where every named habit is set and the rest are
// recorded as false.
func ParseHealth(names []string) (Health, error) {
	h := make(Health, len(Habits()))
	for _, known := range Habits() {
		h[known] = false
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		habit, err := HabitForAlias(name)
		if err != nil {
			return nil, err
		}
		h[habit] = true
	}
	return h, nil
}

// Done returns the habits set to true, sorted by name.
func (h Health) Done() []Habit {
	var done []Habit
	for k, v := range h {
		if v {
			done = append(done, k)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i] < done[j] })
	return done
}
