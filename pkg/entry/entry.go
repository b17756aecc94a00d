// Package entry holds the daily deposit record and the calendar helpers used
// to key it.
package entry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxEnergy is the highest energy level a deposit can record. Zero means unset.
const MaxEnergy = 5

// Entry is one deposit. There is at most one per calendar day, and ID is the
// day it belongs to in YYYY-MM-DD form.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	Text      string    `json:"text"`
	Health    Health    `json:"health,omitempty"`
	Energy    int       `json:"energy,omitempty"`
	Tomorrow  string    `json:"tomorrow,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
}

// New returns an entry for day stamped at now.
func New(day Day, text string, now time.Time) *Entry {
	return &Entry{
		ID:        day.String(),
		Timestamp: Stamp(now),
		Text:      text,
		Health:    Health{},
	}
}

// Day returns the calendar day the entry is keyed on.
func (e *Entry) Day() (Day, error) {
	return Parse(e.ID)
}

// Validate checks the fields a caller controls before a save.
func (e *Entry) Validate() error {
	if e == nil {
		return errors.New("entry: nil entry")
	}
	d, err := Parse(e.ID)
	if err != nil {
		return err
	}
	if d.String() != e.ID {
		return fmt.Errorf("entry: id %q is not canonical, want %q", e.ID, d.String())
	}
	if e.Energy < 0 || e.Energy > MaxEnergy {
		return fmt.Errorf("entry: energy %d out of range 0..%d", e.Energy, MaxEnergy)
	}
	if strings.TrimSpace(e.Text) == "" {
		return errors.New("entry: text is required")
	}
	for h := range e.Health {
		if !h.Valid() {
			return fmt.Errorf("entry: unknown habit %q", h)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Health != nil {
		cp.Health = make(Health, len(e.Health))
		for k, v := range e.Health {
			cp.Health[k] = v
		}
	}
	return &cp
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s", e.ID, e.Text)
}

// Sort orders entries by id, oldest first, or newest first when desc is set.
func Sort(entries []*Entry, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		left := entries[i]
		right := entries[j]
		if left == nil || right == nil {
			return left != nil
		}
		if desc {
			return left.ID > right.ID
		}
		return left.ID < right.ID
	})
}

// IDs returns the ids of entries in their current order.
func IDs(entries []*Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		ids = append(ids, e.ID)
	}
	return ids
}
