package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month without a day component. The zero value is
// "no month".
type Month struct {
	Year int
	Mon  time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Mon: t.Month()}
}

// ParseMonth parses the "2006-01" key format.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Mon == 0
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Mon < o.Mon
}

func (m Month) After(o Month) bool {
	return o.Before(m)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return MonthOf(time.Date(m.Year, m.Mon+1, 1, 0, 0, 0, 0, time.UTC))
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
}

// Date returns the given day of the month at midnight UTC, clamping the day
// to the last valid day of shorter months (day 31 in February becomes
// Feb 28 or 29).
func (m Month) Date(day int) time.Time {
	last := m.Days()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(m.Year, m.Mon, day, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Mon+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsBetween returns the number of month steps from a to b, negative when
// b precedes a.
func MonthsBetween(a, b Month) int {
	return (b.Year-a.Year)*12 + int(b.Mon) - int(a.Mon)
}

// MonthRange returns every month from first to last inclusive, in order.
// Returns nil when last precedes first.
func MonthRange(first, last Month) []Month {
	if last.Before(first) {
		return nil
	}
	months := make([]Month, 0, MonthsBetween(first, last)+1)
	for m := first; !m.After(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// MarshalText makes Month usable as a JSON value and map key.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
