package attendance

import (
	"fmt"
	"strconv"
	"strings"
)

// EditorState is the lifecycle position of a day editor.
type EditorState int

const (
	StateEmpty EditorState = iota
	StatePopulated
	StateEditing
	StateValidationFailed
	StateSubmitted
)

func (s EditorState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateEditing:
		return "editing"
	case StateValidationFailed:
		return "validation_failed"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

type fieldValue struct {
	value string
	err   string
	dirty bool
}

// FieldSnapshot is the visible state of one active field.
type FieldSnapshot struct {
	Name     FieldName
	Kind     FieldKind
	Required bool
	Value    string
	Error    string
	Dirty    bool
}

// EditorSnapshot is a read-only view of the editor.
type EditorSnapshot struct {
	State  EditorState
	Fields []FieldSnapshot
}

// Editor is the state machine behind the per-day attendance form. Loading a
// record starts a fresh edit session; Submit ends it.
type Editor struct {
	state    EditorState
	values   map[FieldName]*fieldValue
	onSubmit func(DayRecord)
}

// NewEditor returns an editor in the Empty state. onSubmit is invoked once per
// successful submission with the composed record.
func NewEditor(onSubmit func(DayRecord)) *Editor {
	e := &Editor{onSubmit: onSubmit}
	e.Load(nil)
	return e
}

// Load resets the editor. A nil record yields the form defaults.
func (e *Editor) Load(record *DayRecord) {
	source := DayRecord{}
	e.state = StateEmpty
	if record != nil {
		source = *record
		e.state = StatePopulated
	}

	e.values = make(map[FieldName]*fieldValue, len(formFields))
	for _, d := range formFields {
		e.values[d.name] = &fieldValue{value: d.read(source)}
	}
}

// State returns the current lifecycle state.
func (e *Editor) State() EditorState {
	return e.state
}

// Set assigns a raw form value to a field and clears that field's error.
func (e *Editor) Set(name FieldName, value string) error {
	if e.state == StateSubmitted {
		return ErrEditorSubmitted
	}
	d, ok := lookupField(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if d.kind == KindCheckbox {
		checked, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFieldValue, name, value)
		}
		value = strconv.FormatBool(checked)
	}

	fv := e.values[name]
	fv.value = value
	fv.err = ""
	fv.dirty = true
	e.state = StateEditing
	return nil
}

// SetAbsence toggles the absence flag. Hour fields keep their values while hidden.
func (e *Editor) SetAbsence(absent bool) error {
	return e.Set(FieldIsAbsence, strconv.FormatBool(absent))
}

// Value returns the raw form value of a field.
func (e *Editor) Value(name FieldName) (string, bool) {
	fv, ok := e.values[name]
	if !ok {
		return "", false
	}
	return fv.value, true
}

func (e *Editor) absent() bool {
	return e.values[FieldIsAbsence].value == "true"
}

func (e *Editor) active() []fieldDescriptor {
	absent := e.absent()
	out := make([]fieldDescriptor, 0, len(formFields))
	for _, d := range formFields {
		if absent && d.hiddenWhenAbsent {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ActiveFields lists the fields currently surfaced for editing.
func (e *Editor) ActiveFields() []FieldName {
	active := e.active()
	names := make([]FieldName, 0, len(active))
	for _, d := range active {
		names = append(names, d.name)
	}
	return names
}

// Errors returns the messages of active fields that failed the last submit.
func (e *Editor) Errors() FieldErrors {
	errs := FieldErrors{}
	for _, d := range e.active() {
		if msg := e.values[d.name].err; msg != "" {
			errs[d.name] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Submit validates the active fields. On failure the editor moves to
// ValidationFailed and returns the field errors. On success it moves to
// Submitted, hands the composed record to onSubmit and returns it.
func (e *Editor) Submit() (DayRecord, FieldErrors, error) {
	if e.state == StateSubmitted {
		return DayRecord{}, nil, ErrEditorSubmitted
	}

	errs := FieldErrors{}
	for _, d := range e.active() {
		fv := e.values[d.name]
		fv.err = d.check(fv.value)
		if fv.err != "" {
			errs[d.name] = fv.err
		}
	}
	if len(errs) > 0 {
		e.state = StateValidationFailed
		return DayRecord{}, errs, nil
	}

	record := e.compose()
	e.state = StateSubmitted
	if e.onSubmit != nil {
		e.onSubmit(record)
	}
	return record, nil, nil
}

// compose builds a record from the active fields; hidden hour fields stay zero.
func (e *Editor) compose() DayRecord {
	var record DayRecord
	for _, d := range e.active() {
		d.write(&record, e.values[d.name].value)
	}
	return record
}

// Snapshot captures the editor for presentation.
func (e *Editor) Snapshot() EditorSnapshot {
	active := e.active()
	fields := make([]FieldSnapshot, 0, len(active))
	for _, d := range active {
		fv := e.values[d.name]
		fields = append(fields, FieldSnapshot{
			Name:     d.name,
			Kind:     d.kind,
			Required: d.required,
			Value:    fv.value,
			Error:    fv.err,
			Dirty:    fv.dirty,
		})
	}
	return EditorSnapshot{State: e.state, Fields: fields}
}
