// Package valuation turns the deposit history into a compound asset value.
//
// Every deposit is worth one unit on its day and grows daily at
//
//	dailyRate = BaseRate + min(streak*StreakBonus, MaxStreakBonus)
//
// where streak is the run of consecutive days ending on the deposit's day.
// The historical curve and the projection use BaseRate only.
package valuation

import (
	"math"

	"github.com/shopspring/decimal"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/stats"
)

const (
	BaseRate       = 0.003
	StreakBonus    = 0.0005
	MaxStreakBonus = 0.01

	// ProjectionDays is how far past today the projection runs.
	ProjectionDays = 30
)

// Point is the value of all deposits as of Date.
type Point struct {
	Date  entry.Day `json:"date"`
	Value float64   `json:"value"`
}

// Valuation is derived from entries and a day; it is never stored.
type Valuation struct {
	CompoundValue float64 `json:"compoundValue"`
	Multiplier    float64 `json:"multiplier"`
	GrowthCurve   []Point `json:"growthCurve"`
	Projection    []Point `json:"projection"`
}

// DailyRate is the growth rate of a deposit made on the given streak day.
func DailyRate(streak int) float64 {
	return BaseRate + math.Min(float64(streak)*StreakBonus, MaxStreakBonus)
}

// Compute values entries as of today.
func Compute(entries []*entry.Entry, today entry.Day) Valuation {
	days := stats.Days(entry.IDs(entries))
	v := Valuation{
		Multiplier:  1,
		GrowthCurve: []Point{},
		Projection:  []Point{},
	}
	if len(days) == 0 {
		return v
	}

	v.CompoundValue = round(Value(days, today), 1)
	v.Multiplier = round(v.CompoundValue/float64(len(days)), 2)
	v.GrowthCurve = GrowthCurve(days, today)
	v.Projection = Projection(len(days), today)
	return v
}

// Value is the unrounded worth of the ascending days as of today, with the
// streak bonus applied per deposit.
func Value(days []entry.Day, today entry.Day) float64 {
	runs := stats.Runs(days)
	total := 0.0
	for i, d := range days {
		since := today.Sub(d)
		if since < 0 {
			since = 0
		}
		total += math.Pow(1+DailyRate(runs[i]), float64(since))
	}
	return total
}

// GrowthCurve gives one point per day from the first deposit to today,
// valuing deposits at BaseRate only.
func GrowthCurve(days []entry.Day, today entry.Day) []Point {
	if len(days) == 0 {
		return []Point{}
	}
	start := days[0]
	count := today.Sub(start) + 1
	if count <= 0 {
		return []Point{}
	}
	curve := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		snapshot := start.Add(i)
		total := 0.0
		for _, d := range days {
			if d.After(snapshot) {
				break
			}
			total += math.Pow(1+BaseRate, float64(snapshot.Sub(d)))
		}
		curve = append(curve, Point{Date: snapshot, Value: round(total, 1)})
	}
	return curve
}

// Projection assumes a deposit every day from here on. Point i holds
// deposits+i deposits made on consecutive days, valued at BaseRate.
func Projection(deposits int, today entry.Day) []Point {
	out := make([]Point, 0, ProjectionDays)
	for i := 1; i <= ProjectionDays; i++ {
		n := deposits + i
		total := 0.0
		for j := 0; j < n; j++ {
			total += math.Pow(1+BaseRate, float64(n-j-1))
		}
		out = append(out, Point{Date: today.Add(i), Value: round(total, 1)})
	}
	return out
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
