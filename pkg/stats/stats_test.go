package stats

import (
	"fmt"
	"math/rand"
	"testing"

	"tableflip.dev/compound/pkg/entry"
)

func entriesFor(ids ...string) []*entry.Entry {
	out := make([]*entry.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, &entry.Entry{ID: id, Text: "x"})
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		today string
		want  Stats
	}{{
		name:  "empty",
		today: "2024-01-03",
		want:  Stats{AsOf: "2024-01-03"},
	}, {
		name:  "three consecutive ending today",
		ids:   []string{"2024-01-02", "2024-01-01", "2024-01-03"},
		today: "2024-01-03",
		want:  Stats{TotalDeposits: 3, CurrentStreak: 3, LongestStreak: 3, StartDate: "2024-01-01", AsOf: "2024-01-03"},
	}, {
		name:  "streak ending yesterday still counts",
		ids:   []string{"2024-01-01", "2024-01-02"},
		today: "2024-01-03",
		want:  Stats{TotalDeposits: 2, CurrentStreak: 2, LongestStreak: 2, StartDate: "2024-01-01", AsOf: "2024-01-03"},
	}, {
		name:  "gap breaks everything",
		ids:   []string{"2024-01-01", "2024-01-05"},
		today: "2024-01-07",
		want:  Stats{TotalDeposits: 2, CurrentStreak: 0, LongestStreak: 1, StartDate: "2024-01-01", AsOf: "2024-01-07"},
	}, {
		name:  "longest run in the past",
		ids:   []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-10", "2024-01-11"},
		today: "2024-01-11",
		want:  Stats{TotalDeposits: 6, CurrentStreak: 2, LongestStreak: 4, StartDate: "2024-01-01", AsOf: "2024-01-11"},
	}, {
		name:  "final run is the longest",
		ids:   []string{"2024-01-01", "2024-01-05", "2024-01-06", "2024-01-07"},
		today: "2024-01-20",
		want:  Stats{TotalDeposits: 4, CurrentStreak: 0, LongestStreak: 3, StartDate: "2024-01-01", AsOf: "2024-01-20"},
	}, {
		name:  "across month boundary",
		ids:   []string{"2024-01-31", "2024-02-01"},
		today: "2024-02-01",
		want:  Stats{TotalDeposits: 2, CurrentStreak: 2, LongestStreak: 2, StartDate: "2024-01-31", AsOf: "2024-02-01"},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(entriesFor(tt.ids...), entry.MustParse(tt.today))
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	days := Days([]string{"2024-01-03", "2024-01-01", "2024-01-02", "2024-01-05", "bogus"})
	got := Runs(days)
	want := []int{1, 2, 3, 1}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStreakBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	start := entry.MustParse("2024-01-01")
	for i := 0; i < 200; i++ {
		var ids []string
		for d := 0; d < 60; d++ {
			if r.Intn(3) > 0 {
				ids = append(ids, start.Add(d).String())
			}
		}
		today := start.Add(r.Intn(70))
		s := Compute(entriesFor(ids...), today)
		if s.CurrentStreak > s.TotalDeposits {
			t.Fatalf("current streak %d exceeds deposits %d for %v", s.CurrentStreak, s.TotalDeposits, ids)
		}
		if s.LongestStreak < s.CurrentStreak {
			t.Fatalf("longest streak %d below current %d for %v at %s", s.LongestStreak, s.CurrentStreak, ids, today)
		}
	}
}
