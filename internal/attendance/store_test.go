package attendance

import (
	"testing"
	"time"
)

func TestNewMonthStore(t *testing.T) {
	t.Parallel()

	march := Month{Year: 2024, Month: time.March}
	seed := map[Date]DayRecord{
		march.Date(3): {Workplace: "בית ספר"},
	}
	seed[Date{Year: 2024, Month: time.April, Day: 3}] = DayRecord{Workplace: "גן"}
	seed[Date{Year: 2023, Month: time.March, Day: 3}] = DayRecord{Workplace: "מכללה"}

	store := NewMonthStore(march, seed)

	if store.Len() != 1 {
		t.Fatalf("expected only same-month seed entries, got %d", store.Len())
	}
	record, ok := store.Get(3)
	if !ok || record.Workplace != "בית ספר" {
		t.Fatalf("unexpected record for day 3: %#v (found=%v)", record, ok)
	}
}

func TestMonthStore_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("replaces entries wholesale", func(t *testing.T) {
		t.Parallel()

		store := NewMonthStore(Month{Year: 2024, Month: time.May}, nil)
		store.Upsert(7, DayRecord{Workplace: "בית ספר", StartHour: "08:00", EndHour: "12:00", FrontalHours: 4, Comments: "ישיבה"})
		store.Upsert(7, DayRecord{Workplace: "גן", IsAbsence: true})

		record, ok := store.Get(7)
		if !ok {
			t.Fatalf("expected record for day 7")
		}
		want := DayRecord{Workplace: "גן", IsAbsence: true}
		if record != want {
			t.Fatalf("expected %#v, got %#v", want, record)
		}
	})

	t.Run("keeps other days untouched", func(t *testing.T) {
		t.Parallel()

		store := NewMonthStore(Month{Year: 2024, Month: time.May}, nil)
		store.Upsert(1, DayRecord{Workplace: "א"})
		store.Upsert(2, DayRecord{Workplace: "ב"})
		store.Upsert(2, DayRecord{Workplace: "ג"})

		first, _ := store.Get(1)
		if first.Workplace != "א" {
			t.Fatalf("expected day 1 unchanged, got %#v", first)
		}
		if store.Len() != 2 {
			t.Fatalf("expected two entries, got %d", store.Len())
		}
	})
}

func TestMonthStore_Records(t *testing.T) {
	t.Parallel()

	store := NewMonthStore(Month{Year: 2024, Month: time.June}, nil)
	for _, day := range []int{20, 3, 11} {
		store.Upsert(day, DayRecord{FrontalHours: day})
	}

	entries := store.Records()
	if len(entries) != 3 {
		t.Fatalf("expected three entries, got %d", len(entries))
	}
	for i, want := range []int{3, 11, 20} {
		if entries[i].Day != want || entries[i].Record.FrontalHours != want {
			t.Fatalf("entry %d: expected day %d, got %#v", i, want, entries[i])
		}
	}
}

func TestDayRecord_TotalHours(t *testing.T) {
	t.Parallel()

	present := DayRecord{FrontalHours: 4, IndividualHours: 2, StayingHours: 1}
	if present.TotalHours() != 7 {
		t.Fatalf("expected 7 hours, got %d", present.TotalHours())
	}
	absent := DayRecord{IsAbsence: true, FrontalHours: 4}
	if absent.TotalHours() != 0 {
		t.Fatalf("expected absent day to count zero, got %d", absent.TotalHours())
	}
}
