package testfixtures

import (
	"sync"
	"time"

	"github.com/example/monthly-attendance/internal/attendance"
)

// Clock is a settable time source shared by a test and the services under test.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now for injection; a nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Month returns the calendar month the clock is in.
func (c *Clock) Month() attendance.Month {
	return attendance.MonthOf(c.Now())
}

// AdvanceToNextMonth moves the clock to 08:00 on the first day of the
// following month and returns that month.
func (c *Clock) AdvanceToNextMonth() attendance.Month {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, _ := c.current.Date()
	c.current = time.Date(y, m+1, 1, 8, 0, 0, 0, c.current.Location())
	return attendance.MonthOf(c.current)
}
