// Package remote defines the cloud projection of a deposit and the contract a
// remote mirror backend satisfies.
package remote

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tableflip.dev/compound/pkg/entry"
)

// ErrNotConfigured is returned when the selected driver lacks the settings it
// needs to reach its backend.
var ErrNotConfigured = errors.New("remote: not configured")

// Drivers understood by Config.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultTable is the mirror table used when none is configured.
const DefaultTable = "entries"

// Config selects and addresses a mirror backend.
type Config struct {
	Driver string `json:"driver"`
	URL    string `json:"url,omitempty"`
	Key    string `json:"-"`
	DSN    string `json:"-"`
	Table  string `json:"table"`
}

// Configured reports whether the driver has everything it needs.
func (c Config) Configured() bool {
	switch c.Driver {
	case DriverSupabase:
		return c.URL != "" && c.Key != ""
	case DriverPostgres, DriverSQLite, "sqlite3":
		return c.DSN != ""
	default:
		return false
	}
}

// TableName returns the configured table or DefaultTable.
func (c Config) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// Mirror is a remote copy of the entries, keyed by id with overwrite on
// conflict. Implementations must be safe for concurrent use.
type Mirror interface {
	// Upsert writes rows, replacing any existing row with the same id. A row
	// with a nil Analysis leaves the stored analysis untouched.
	Upsert(ctx context.Context, rows []Row) error
	// SelectAll returns every row ordered by id descending.
	SelectAll(ctx context.Context) ([]Row, error)
	// SetAnalysis updates only the analysis of the row with the given id.
	SetAnalysis(ctx context.Context, id, analysis string) error
	Close() error
}

// Row is the remote projection of an entry.
type Row struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Health    Health    `json:"health" db:"health"`
	Energy    int       `json:"energy" db:"energy"`
	Tomorrow  string    `json:"tomorrow" db:"tomorrow"`
	Analysis  *string   `json:"analysis,omitempty" db:"analysis"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FromEntry projects e for upload from deviceID. UpdatedAt carries the entry
// timestamp so a row pulled back compares equal to the local copy; an entry
// without a timestamp is sent as the Unix epoch.
func FromEntry(e *entry.Entry, deviceID string) Row {
	r := Row{
		ID:        e.ID,
		Text:      e.Text,
		Health:    Health(e.Clone().Health),
		Energy:    e.Energy,
		Tomorrow:  e.Tomorrow,
		DeviceID:  deviceID,
		UpdatedAt: e.Timestamp.UTC(),
	}
	if e.Timestamp.IsZero() {
		r.UpdatedAt = time.UnixMilli(0).UTC()
	}
	if e.Analysis != "" {
		a := e.Analysis
		r.Analysis = &a
	}
	return r
}

// Entry converts the row back into a local entry stamped at UpdatedAt.
func (r Row) Entry() *entry.Entry {
	e := &entry.Entry{
		ID:        r.ID,
		Timestamp: entry.Stamp(r.UpdatedAt),
		Text:      r.Text,
		Health:    entry.Health{},
		Energy:    r.Energy,
		Tomorrow:  r.Tomorrow,
	}
	for k, v := range r.Health {
		e.Health[k] = v
	}
	if r.Analysis != nil {
		e.Analysis = *r.Analysis
	}
	return e
}

// IDs returns the ids of rows in order.
func IDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

// Health is the habit map stored as a JSON object column.
type Health entry.Health

func (h Health) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[entry.Habit]bool(h))
}

// Value implements driver.Valuer for SQL mirrors.
func (h Health) Value() (driver.Value, error) {
	b, err := h.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for SQL mirrors.
func (h *Health) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*h = Health{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("remote: cannot scan %T into health", src)
	}
	m := map[entry.Habit]bool{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("remote: decode health: %w", err)
		}
	}
	*h = Health(m)
	return nil
}
