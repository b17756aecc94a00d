package store

import (
	"context"

	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/stats"
)

// RecalculateStats recomputes stats over every stored entry and caches the
// result. The fresh stats are returned even if caching fails.
func RecalculateStats(ctx context.Context, p Persistence, today entry.Day) (stats.Stats, error) {
	s := stats.Compute(p.ListAll(ctx), today)
	return s, p.SaveStats(s)
}
