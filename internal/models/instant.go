package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Instant is a point in time that is always held in UTC. Persisted
// timestamps lacking zone information are interpreted as UTC when read, so
// an Instant can never carry an ambiguous local time downstream.
type Instant struct {
	t time.Time
}

// NewInstant normalizes the given time to UTC.
func NewInstant(t time.Time) Instant {
	return Instant{t: t.UTC()}
}

// InstantNow returns the current instant.
func InstantNow() Instant {
	return Instant{t: time.Now().UTC()}
}

// Time exposes the underlying UTC time.
func (i Instant) Time() time.Time {
	return i.t
}

// IsZero reports whether the instant is unset.
func (i Instant) IsZero() bool {
	return i.t.IsZero()
}

// Before reports whether i is strictly before the given time.
func (i Instant) Before(t time.Time) bool {
	return i.t.Before(t.UTC())
}

// After reports whether i is strictly after the given time.
func (i Instant) After(t time.Time) bool {
	return i.t.After(t.UTC())
}

// Add returns the instant shifted by d.
func (i Instant) Add(d time.Duration) Instant {
	return Instant{t: i.t.Add(d)}
}

func (i Instant) String() string {
	return i.t.Format(time.RFC3339)
}

// MarshalJSON renders the instant as RFC3339 UTC.
func (i Instant) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.t.Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON accepts RFC3339 timestamps; zone-less values are read as UTC.
func (i *Instant) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" || raw == `""` {
		*i = Instant{}
		return nil
	}
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("instant: invalid JSON value %s", raw)
	}
	parsed, err := parseInstant(raw[1 : len(raw)-1])
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer storing UTC.
func (i Instant) Value() (driver.Value, error) {
	if i.t.IsZero() {
		return nil, nil
	}
	return i.t, nil
}

// Scan implements sql.Scanner. Naked timestamps are taken as UTC, never as
// the server's local zone.
func (i *Instant) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*i = Instant{}
		return nil
	case time.Time:
		*i = NewInstant(v)
		return nil
	case []byte:
		parsed, err := parseInstant(string(v))
		if err != nil {
			return err
		}
		*i = parsed
		return nil
	case string:
		parsed, err := parseInstant(v)
		if err != nil {
			return err
		}
		*i = parsed
		return nil
	default:
		return fmt.Errorf("instant: cannot scan %T", src)
	}
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseInstant(raw string) (Instant, error) {
	for _, layout := range instantLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return NewInstant(parsed), nil
		}
	}
	return Instant{}, fmt.Errorf("instant: unparseable timestamp %q", raw)
}
