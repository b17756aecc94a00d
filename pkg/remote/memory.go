package remote

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Mirror. Tests use it in place of a real backend and
// can inject failures through the Fail fields.
type Memory struct {
	mu   sync.Mutex
	rows map[string]Row

	// FailUpsert, FailSelect and FailAnalysis, when set, are returned by the
	// matching call instead of touching the rows.
	FailUpsert   error
	FailSelect   error
	FailAnalysis error

	upserts int
	selects int
}

// NewMemory returns a Memory seeded with rows.
func NewMemory(rows ...Row) *Memory {
	m := &Memory{rows: make(map[string]Row)}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *Memory) Upsert(_ context.Context, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.FailUpsert != nil {
		return m.FailUpsert
	}
	for _, r := range rows {
		if prev, ok := m.rows[r.ID]; ok && r.Analysis == nil {
			r.Analysis = prev.Analysis
		}
		m.rows[r.ID] = r
	}
	return nil
}

func (m *Memory) SelectAll(_ context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selects++
	if m.FailSelect != nil {
		return nil, m.FailSelect
	}
	return m.sortedLocked(), nil
}

func (m *Memory) SetAnalysis(_ context.Context, id, analysis string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAnalysis != nil {
		return m.FailAnalysis
	}
	if r, ok := m.rows[id]; ok {
		a := analysis
		r.Analysis = &a
		m.rows[id] = r
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Rows returns a snapshot ordered by id descending.
func (m *Memory) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

// Row returns the row for id.
func (m *Memory) Row(id string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

// Upserts counts Upsert calls, failed ones included.
func (m *Memory) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// Selects counts SelectAll calls.
func (m *Memory) Selects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selects
}

// SetFailures swaps the injected errors under the lock.
func (m *Memory) SetFailures(upsert, selectAll error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailUpsert = upsert
	m.FailSelect = selectAll
}

func (m *Memory) sortedLocked() []Row {
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
