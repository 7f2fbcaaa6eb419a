package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Month() != ReferenceMonth() {
		t.Fatalf("expected reference month, got %v", clock.Month())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.NowFunc()(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockAdvanceToNextMonthRollsYear(t *testing.T) {
	clock := NewClock(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC))

	month := clock.AdvanceToNextMonth()
	if month.Key() != "2025-01" {
		t.Fatalf("expected 2025-01, got %s", month.Key())
	}
	if day := clock.Now().Day(); day != 1 {
		t.Fatalf("expected first of month, got day %d", day)
	}
}
