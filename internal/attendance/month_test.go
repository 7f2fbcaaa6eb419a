package attendance

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	t.Parallel()

	t.Run("parses padded keys", func(t *testing.T) {
		t.Parallel()

		month, err := ParseMonth(" 2024-02 ")
		if err != nil {
			t.Fatalf("ParseMonth failed: %v", err)
		}
		if month.Year != 2024 || month.Month != time.February {
			t.Fatalf("unexpected month: %#v", month)
		}
		if month.Key() != "2024-02" {
			t.Fatalf("expected key round trip, got %s", month.Key())
		}
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		t.Parallel()

		for _, key := range []string{"", "2024", "2024-13", "24-01", "2024/01"} {
			if _, err := ParseMonth(key); !errors.Is(err, ErrInvalidMonth) {
				t.Fatalf("expected ErrInvalidMonth for %q, got %v", key, err)
			}
		}
	})
}

func TestMonth_LastDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		month Month
		want  int
	}{
		{Month{Year: 2024, Month: time.February}, 29},
		{Month{Year: 2023, Month: time.February}, 28},
		{Month{Year: 2024, Month: time.April}, 30},
		{Month{Year: 2024, Month: time.December}, 31},
	}

	for _, tc := range cases {
		if got := tc.month.LastDay(); got != tc.want {
			t.Fatalf("%s: expected %d days, got %d", tc.month, tc.want, got)
		}
	}
}

func TestMonth_Contains(t *testing.T) {
	t.Parallel()

	april := Month{Year: 2024, Month: time.April}
	for _, day := range []int{1, 15, 30} {
		if !april.Contains(day) {
			t.Fatalf("expected day %d to be selectable", day)
		}
	}
	for _, day := range []int{-1, 0, 31, 32} {
		if april.Contains(day) {
			t.Fatalf("expected day %d to be rejected", day)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	date, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if date != (Date{Year: 2024, Month: time.March, Day: 5}) {
		t.Fatalf("unexpected date: %#v", date)
	}
	if date.String() != "2024-03-05" {
		t.Fatalf("expected round trip, got %s", date)
	}

	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Fatalf("expected invalid calendar date to fail")
	}
}
