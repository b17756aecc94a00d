package entry

import (
	"encoding/json"
	"time"
)

// ParseTime reads an RFC3339 time, with or without fractional seconds.
func ParseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Timestamp is the modification instant of an entry. It is kept at
// millisecond precision so it compares equal after a round trip through the
// remote mirror.
type Timestamp struct {
	time.Time
}

// Stamp truncates t to milliseconds and drops the monotonic reading.
func Stamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t.Round(0).Truncate(time.Millisecond)}
}

// Newer reports whether t is strictly after other. A zero other counts as the
// epoch.
func (t Timestamp) Newer(other Timestamp) bool {
	if other.IsZero() {
		return t.After(time.Unix(0, 0))
	}
	return t.After(other.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(FormatTime(t.Time))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var millis int64
	if err := json.Unmarshal(b, &millis); err == nil {
		// Exports from the browser app store epoch milliseconds.
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	var timestamp string
	if err := json.Unmarshal(b, &timestamp); err != nil {
		return err
	}
	if timestamp == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	t.Time, err = ParseTime(timestamp)
	return err
}

func (t Timestamp) String() string {
	return t.UTC().Format(time.RFC3339)
}

// FormatTime renders v in UTC with full precision.
func FormatTime(v time.Time) string {
	return v.UTC().Format(time.RFC3339Nano)
}
