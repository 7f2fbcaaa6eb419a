package attendance

import (
	"fmt"
	"strings"
	"time"
)

const monthKeyLayout = "2006-01"

// Month identifies a displayed calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// Date is an unambiguous calendar day used to key attendance records.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(key string) (Month, error) {
	parsed, err := time.Parse(monthKeyLayout, strings.TrimSpace(key))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, key)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Key renders the month as YYYY-MM.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// String implements fmt.Stringer.
func (m Month) String() string {
	return m.Key()
}

// FirstDay returns 1.
func (m Month) FirstDay() int {
	return 1
}

// LastDay returns the number of days in the month.
func (m Month) LastDay() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether day is a selectable day of the month.
func (m Month) Contains(day int) bool {
	return day >= m.FirstDay() && day <= m.LastDay()
}

// Date returns the full date for a day of this month. The day is not range checked.
func (m Month) Date(day int) Date {
	return Date{Year: m.Year, Month: m.Month, Day: day}
}

// Start returns midnight of the first day in loc.
func (m Month) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("attendance: invalid date %q: %w", value, err)
	}
	return Date{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
