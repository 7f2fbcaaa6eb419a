package attendance

import (
	"strconv"

	"github.com/example/monthly-attendance/internal/validation"
)

// FieldName identifies a form field.
type FieldName string

const (
	FieldWorkplace       FieldName = "workplace"
	FieldIsAbsence       FieldName = "is_absence"
	FieldStartHour       FieldName = "start_hour"
	FieldEndHour         FieldName = "end_hour"
	FieldFrontalHours    FieldName = "frontal_hours"
	FieldIndividualHours FieldName = "individual_hours"
	FieldStayingHours    FieldName = "staying_hours"
	FieldComments        FieldName = "comments"
)

// FieldKind describes how a field is edited and converted.
type FieldKind string

const (
	KindText      FieldKind = "text"
	KindCheckbox  FieldKind = "checkbox"
	KindTime      FieldKind = "time"
	KindNumber    FieldKind = "number"
	KindMultiline FieldKind = "multiline"
)

type fieldDescriptor struct {
	name             FieldName
	kind             FieldKind
	required         bool
	hiddenWhenAbsent bool
	requiredMessage  string
	pattern          func(string) bool
	patternMessage   string
	read             func(DayRecord) string
	write            func(*DayRecord, string)
}

// check returns the message for the first rule value violates, or "".
func (d fieldDescriptor) check(value string) string {
	if d.required && value == "" {
		return d.requiredMessage
	}
	if d.pattern != nil && value != "" && !d.pattern(value) {
		return d.patternMessage
	}
	return ""
}

// formFields is the attendance form, in display order.
var formFields = []fieldDescriptor{
	{
		name:     FieldIsAbsence,
		kind:     KindCheckbox,
		read:     func(r DayRecord) string { return strconv.FormatBool(r.IsAbsence) },
		write:    func(r *DayRecord, v string) { r.IsAbsence = v == "true" },
		required: false,
	},
	{
		name:            FieldWorkplace,
		kind:            KindText,
		required:        true,
		requiredMessage: "workplace is required",
		pattern:         validation.ValidWorkplace,
		patternMessage:  "workplace must contain Hebrew text only",
		read:            func(r DayRecord) string { return r.Workplace },
		write:           func(r *DayRecord, v string) { r.Workplace = v },
	},
	{
		name:             FieldStartHour,
		kind:             KindTime,
		required:         true,
		hiddenWhenAbsent: true,
		requiredMessage:  "start hour is required",
		pattern:          validation.ValidTimeOfDay,
		patternMessage:   "start hour must be in HH:MM format",
		read:             func(r DayRecord) string { return r.StartHour },
		write:            func(r *DayRecord, v string) { r.StartHour = v },
	},
	{
		name:             FieldEndHour,
		kind:             KindTime,
		required:         true,
		hiddenWhenAbsent: true,
		requiredMessage:  "end hour is required",
		pattern:          validation.ValidTimeOfDay,
		patternMessage:   "end hour must be in HH:MM format",
		read:             func(r DayRecord) string { return r.EndHour },
		write:            func(r *DayRecord, v string) { r.EndHour = v },
	},
	numberField(FieldFrontalHours, "frontal hours",
		func(r DayRecord) int { return r.FrontalHours },
		func(r *DayRecord, n int) { r.FrontalHours = n }),
	numberField(FieldIndividualHours, "individual hours",
		func(r DayRecord) int { return r.IndividualHours },
		func(r *DayRecord, n int) { r.IndividualHours = n }),
	numberField(FieldStayingHours, "staying hours",
		func(r DayRecord) int { return r.StayingHours },
		func(r *DayRecord, n int) { r.StayingHours = n }),
	{
		name:  FieldComments,
		kind:  KindMultiline,
		read:  func(r DayRecord) string { return r.Comments },
		write: func(r *DayRecord, v string) { r.Comments = v },
	},
}

func numberField(name FieldName, label string, get func(DayRecord) int, set func(*DayRecord, int)) fieldDescriptor {
	return fieldDescriptor{
		name:             name,
		kind:             KindNumber,
		required:         true,
		hiddenWhenAbsent: true,
		requiredMessage:  label + " is required",
		pattern:          isHourCount,
		patternMessage:   label + " must be a number",
		read:             func(r DayRecord) string { return strconv.Itoa(get(r)) },
		write: func(r *DayRecord, v string) {
			n, _ := strconv.Atoi(v)
			set(r, n)
		},
	}
}

// isHourCount accepts digit strings that also fit in an int.
func isHourCount(value string) bool {
	if !validation.ValidNumericHours(value) {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}

func lookupField(name FieldName) (fieldDescriptor, bool) {
	for _, d := range formFields {
		if d.name == name {
			return d, true
		}
	}
	return fieldDescriptor{}, false
}

// FieldNames lists every form field in display order.
func FieldNames() []FieldName {
	names := make([]FieldName, 0, len(formFields))
	for _, d := range formFields {
		names = append(names, d.name)
	}
	return names
}
