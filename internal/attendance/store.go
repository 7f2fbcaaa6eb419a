package attendance

import "sort"

// MonthStore holds the records of one displayed month. Entries are keyed by
// full date so records from different months can never alias each other.
type MonthStore struct {
	month   Month
	records map[Date]DayRecord
}

// DayEntry pairs a day of the month with its record.
type DayEntry struct {
	Day    int
	Record DayRecord
}

// NewMonthStore creates a store for month seeded with previously saved
// records. Seed entries belonging to other months are ignored.
func NewMonthStore(month Month, seed map[Date]DayRecord) *MonthStore {
	s := &MonthStore{month: month, records: make(map[Date]DayRecord, len(seed))}
	for date, record := range seed {
		if date.Year != month.Year || date.Month != month.Month {
			continue
		}
		s.records[date] = record
	}
	return s
}

// Month returns the month the store was created for.
func (s *MonthStore) Month() Month {
	return s.month
}

// Get returns the record stored for day, if any.
func (s *MonthStore) Get(day int) (DayRecord, bool) {
	record, ok := s.records[s.month.Date(day)]
	return record, ok
}

// Upsert replaces the entry for day wholesale. Bounds are the caller's concern.
func (s *MonthStore) Upsert(day int, record DayRecord) {
	s.records[s.month.Date(day)] = record
}

// Len returns the number of stored days.
func (s *MonthStore) Len() int {
	return len(s.records)
}

// Records returns a day-ordered copy of the stored entries.
func (s *MonthStore) Records() []DayEntry {
	out := make([]DayEntry, 0, len(s.records))
	for date, record := range s.records {
		out = append(out, DayEntry{Day: date.Day, Record: record})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
