package models

import (
	"fmt"
	"strings"
	"time"
)

const calendarLayout = "2006-01-02"

// Date is a calendar date serialized as ISO-8601 YYYY-MM-DD. Unmarshalling
// also accepts full RFC 3339 timestamps, keeping packages produced by older
// installations readable.
type Date struct {
	time.Time
}

// NewDate wraps a time value, truncating it to its calendar day in UTC.
func NewDate(t time.Time) Date {
	u := t.UTC()
	return Date{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// DateFrom converts an optional timestamp to an optional calendar date.
func DateFrom(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}

// MarshalJSON renders the date as "YYYY-MM-DD" or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(calendarLayout) + `"`), nil
}

// UnmarshalJSON parses "YYYY-MM-DD", RFC 3339, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(calendarLayout, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	*d = NewDate(t)
	return nil
}
