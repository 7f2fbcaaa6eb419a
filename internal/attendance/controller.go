package attendance

// Selection is the calendar's selected day (0 when none) and whether the
// editor overlay is open.
type Selection struct {
	Day  int
	Open bool
}

// SubmitOutcome reports the result of submitting the open editor.
type SubmitOutcome struct {
	Saved  bool
	Day    int
	Date   Date
	Record DayRecord
	Errors FieldErrors
}

// Controller binds day selection to the editor lifecycle and the month store.
type Controller struct {
	store     *MonthStore
	editor    *Editor
	selection Selection
}

// NewController creates a closed controller with no day selected.
func NewController(store *MonthStore) *Controller {
	c := &Controller{store: store}
	c.editor = NewEditor(func(record DayRecord) {
		c.HandleEditorSubmit(c.selection.Day, record)
	})
	return c
}

// Month returns the displayed month.
func (c *Controller) Month() Month {
	return c.store.Month()
}

// Store exposes the month store.
func (c *Controller) Store() *MonthStore {
	return c.store
}

// Selection returns the current selection state.
func (c *Controller) Selection() Selection {
	return c.selection
}

// SelectDay selects day and opens the editor loaded from the store. Days
// outside the displayed month are ignored and false is returned.
func (c *Controller) SelectDay(day int) bool {
	if !c.store.Month().Contains(day) {
		return false
	}

	c.selection.Day = day
	if record, ok := c.store.Get(day); ok {
		c.editor.Load(&record)
	} else {
		c.editor.Load(nil)
	}
	c.selection.Open = true
	return true
}

// CloseEditor hides the editor. The selected day is kept.
func (c *Controller) CloseEditor() {
	c.selection.Open = false
}

// HandleEditorSubmit stores record for day and closes the editor.
func (c *Controller) HandleEditorSubmit(day int, record DayRecord) {
	c.store.Upsert(day, record)
	c.CloseEditor()
}

// Editor returns the editor while the overlay is open.
func (c *Controller) Editor() (*Editor, bool) {
	if !c.selection.Open {
		return nil, false
	}
	return c.editor, true
}

// EditField forwards a field edit to the open editor.
func (c *Controller) EditField(name FieldName, value string) error {
	editor, ok := c.Editor()
	if !ok {
		return ErrEditorClosed
	}
	return editor.Set(name, value)
}

// SubmitEditor submits the open editor. A successful submission has already
// been stored and the editor closed by the time it returns.
func (c *Controller) SubmitEditor() (SubmitOutcome, error) {
	editor, ok := c.Editor()
	if !ok {
		return SubmitOutcome{}, ErrEditorClosed
	}

	day := c.selection.Day
	record, errs, err := editor.Submit()
	if err != nil {
		return SubmitOutcome{}, err
	}
	if len(errs) > 0 {
		return SubmitOutcome{Day: day, Date: c.store.Month().Date(day), Errors: errs}, nil
	}
	return SubmitOutcome{
		Saved:  true,
		Day:    day,
		Date:   c.store.Month().Date(day),
		Record: record,
	}, nil
}
