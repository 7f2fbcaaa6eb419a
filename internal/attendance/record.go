// Package attendance implements the monthly attendance editing flow: the
// per-month record store, the day editor state machine and the calendar
// selection controller that ties them together.
//
// The types in this package are not safe for concurrent use. Callers that
// share a controller between goroutines must serialize access.
package attendance

import "errors"

var (
	// ErrInvalidMonth is returned when a month key cannot be parsed.
	ErrInvalidMonth = errors.New("attendance: invalid month")
	// ErrEditorClosed is returned when an editor operation is attempted while no day is open.
	ErrEditorClosed = errors.New("attendance: editor is not open")
	// ErrEditorSubmitted is returned when the editor has already been submitted for this session.
	ErrEditorSubmitted = errors.New("attendance: editor already submitted")
	// ErrUnknownField is returned for a field name missing from the form table.
	ErrUnknownField = errors.New("attendance: unknown field")
	// ErrInvalidFieldValue is returned when a value cannot be assigned to a field of its kind.
	ErrInvalidFieldValue = errors.New("attendance: invalid field value")
)

// DayRecord is one calendar day's attendance.
type DayRecord struct {
	Workplace       string
	IsAbsence       bool
	StartHour       string
	EndHour         string
	FrontalHours    int
	IndividualHours int
	StayingHours    int
	Comments        string
}

// TotalHours sums the three duration fields. Absent days count zero.
func (r DayRecord) TotalHours() int {
	if r.IsAbsence {
		return 0
	}
	return r.FrontalHours + r.IndividualHours + r.StayingHours
}

// FieldErrors maps a field to the message describing why it failed validation.
type FieldErrors map[FieldName]string

// Strings converts the error set to plain string keys.
func (f FieldErrors) Strings() map[string]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]string, len(f))
	for name, msg := range f {
		out[string(name)] = msg
	}
	return out
}
