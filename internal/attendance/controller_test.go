package attendance

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func newTestController(seed map[Date]DayRecord) *Controller {
	return NewController(NewMonthStore(Month{Year: 2024, Month: time.February}, seed))
}

func fillRecord(t *testing.T, c *Controller, record DayRecord) {
	t.Helper()

	values := map[FieldName]string{
		FieldWorkplace:       record.Workplace,
		FieldStartHour:       record.StartHour,
		FieldEndHour:         record.EndHour,
		FieldFrontalHours:    strconv.Itoa(record.FrontalHours),
		FieldIndividualHours: strconv.Itoa(record.IndividualHours),
		FieldStayingHours:    strconv.Itoa(record.StayingHours),
		FieldComments:        record.Comments,
	}
	for name, value := range values {
		if err := c.EditField(name, value); err != nil {
			t.Fatalf("EditField(%s) failed: %v", name, err)
		}
	}
	if record.IsAbsence {
		if err := c.EditField(FieldIsAbsence, "true"); err != nil {
			t.Fatalf("EditField(is_absence) failed: %v", err)
		}
	}
}

func TestController_Initial(t *testing.T) {
	t.Parallel()

	c := newTestController(nil)
	if sel := c.Selection(); sel.Open || sel.Day != 0 {
		t.Fatalf("expected closed controller with no day, got %#v", sel)
	}
	if _, ok := c.Editor(); ok {
		t.Fatalf("expected editor to be hidden")
	}
	if _, err := c.SubmitEditor(); !errors.Is(err, ErrEditorClosed) {
		t.Fatalf("expected ErrEditorClosed, got %v", err)
	}
	if err := c.EditField(FieldWorkplace, "גן"); !errors.Is(err, ErrEditorClosed) {
		t.Fatalf("expected ErrEditorClosed, got %v", err)
	}
}

func TestController_SelectDay(t *testing.T) {
	t.Parallel()

	t.Run("opens an empty editor for a new day", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		if !c.SelectDay(10) {
			t.Fatalf("expected selection to succeed")
		}
		if sel := c.Selection(); !sel.Open || sel.Day != 10 {
			t.Fatalf("unexpected selection: %#v", sel)
		}
		editor, ok := c.Editor()
		if !ok || editor.State() != StateEmpty {
			t.Fatalf("expected empty editor, got ok=%v", ok)
		}
	})

	t.Run("loads the stored record", func(t *testing.T) {
		t.Parallel()

		month := Month{Year: 2024, Month: time.February}
		c := newTestController(map[Date]DayRecord{month.Date(5): {Workplace: "גן", IsAbsence: true}})
		c.SelectDay(5)

		editor, _ := c.Editor()
		if editor.State() != StatePopulated {
			t.Fatalf("expected populated editor, got %s", editor.State())
		}
		if v, _ := editor.Value(FieldWorkplace); v != "גן" {
			t.Fatalf("expected stored workplace, got %q", v)
		}
	})

	t.Run("ignores days outside the month", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		c.SelectDay(3)
		c.CloseEditor()

		for _, day := range []int{0, -4, 30, 31} {
			if c.SelectDay(day) {
				t.Fatalf("expected day %d to be rejected", day)
			}
		}
		if sel := c.Selection(); sel.Open || sel.Day != 3 {
			t.Fatalf("expected selection unchanged, got %#v", sel)
		}
	})

	t.Run("reloads from the store on reopen", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		c.SelectDay(4)
		if err := c.EditField(FieldWorkplace, "טיוטה"); err != nil {
			t.Fatalf("EditField failed: %v", err)
		}
		c.CloseEditor()
		c.SelectDay(4)

		editor, _ := c.Editor()
		if v, _ := editor.Value(FieldWorkplace); v != "" {
			t.Fatalf("expected unsaved draft discarded, got %q", v)
		}
	})
}

func TestController_Submit(t *testing.T) {
	t.Parallel()

	scenarioA := DayRecord{
		Workplace:       "בית ספר",
		StartHour:       "09:00",
		EndHour:         "17:00",
		FrontalHours:    5,
		IndividualHours: 2,
		StayingHours:    1,
	}

	t.Run("stores a valid record and closes", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		c.SelectDay(1)
		fillRecord(t, c, scenarioA)

		outcome, err := c.SubmitEditor()
		if err != nil {
			t.Fatalf("SubmitEditor failed: %v", err)
		}
		if !outcome.Saved || outcome.Day != 1 || outcome.Date.String() != "2024-02-01" {
			t.Fatalf("unexpected outcome: %#v", outcome)
		}

		stored, ok := c.Store().Get(1)
		if !ok || stored != scenarioA {
			t.Fatalf("expected %#v stored, got %#v (found=%v)", scenarioA, stored, ok)
		}
		if _, ok := c.Store().Get(2); ok {
			t.Fatalf("expected day 2 to stay absent")
		}
		if sel := c.Selection(); sel.Open || sel.Day != 1 {
			t.Fatalf("expected closed editor keeping day 1, got %#v", sel)
		}
	})

	t.Run("accepts an absence with blank hours", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		c.SelectDay(8)
		if err := c.EditField(FieldWorkplace, "בית ספר"); err != nil {
			t.Fatalf("EditField failed: %v", err)
		}
		if err := c.EditField(FieldFrontalHours, ""); err != nil {
			t.Fatalf("EditField failed: %v", err)
		}
		if err := c.EditField(FieldIsAbsence, "true"); err != nil {
			t.Fatalf("EditField failed: %v", err)
		}

		outcome, err := c.SubmitEditor()
		if err != nil || !outcome.Saved {
			t.Fatalf("expected absence to save, got %#v %v", outcome, err)
		}
		stored, _ := c.Store().Get(8)
		if !stored.IsAbsence || stored.Workplace != "בית ספר" {
			t.Fatalf("unexpected stored record: %#v", stored)
		}
	})

	t.Run("keeps the store unchanged on validation failure", func(t *testing.T) {
		t.Parallel()

		month := Month{Year: 2024, Month: time.February}
		existing := DayRecord{Workplace: "גן", IsAbsence: true}
		c := newTestController(map[Date]DayRecord{month.Date(9): existing})
		c.SelectDay(9)
		if err := c.EditField(FieldIsAbsence, "false"); err != nil {
			t.Fatalf("EditField failed: %v", err)
		}
		fillRecord(t, c, DayRecord{Workplace: "Invalid English Text", StartHour: "09:00", EndHour: "10:00"})

		outcome, err := c.SubmitEditor()
		if err != nil {
			t.Fatalf("SubmitEditor failed: %v", err)
		}
		if outcome.Saved || outcome.Errors[FieldWorkplace] == "" {
			t.Fatalf("expected workplace error, got %#v", outcome)
		}
		if stored, _ := c.Store().Get(9); stored != existing {
			t.Fatalf("expected store unchanged, got %#v", stored)
		}
		if sel := c.Selection(); !sel.Open {
			t.Fatalf("expected editor to stay open")
		}
	})

	t.Run("isolates days and keeps the last write", func(t *testing.T) {
		t.Parallel()

		c := newTestController(nil)
		other := DayRecord{Workplace: "גן", IsAbsence: true}
		c.SelectDay(2)
		fillRecord(t, c, other)
		if _, err := c.SubmitEditor(); err != nil {
			t.Fatalf("SubmitEditor failed: %v", err)
		}

		for i := 0; i < 2; i++ {
			c.SelectDay(1)
			fillRecord(t, c, scenarioA)
			if _, err := c.SubmitEditor(); err != nil {
				t.Fatalf("SubmitEditor failed: %v", err)
			}
		}

		if c.Store().Len() != 2 {
			t.Fatalf("expected two stored days, got %d", c.Store().Len())
		}
		if stored, _ := c.Store().Get(1); stored != scenarioA {
			t.Fatalf("expected last write for day 1, got %#v", stored)
		}
		if stored, _ := c.Store().Get(2); stored != other {
			t.Fatalf("expected day 2 untouched, got %#v", stored)
		}
	})

	t.Run("round trips a stored record unchanged", func(t *testing.T) {
		t.Parallel()

		month := Month{Year: 2024, Month: time.February}
		stored := DayRecord{Workplace: "בית ספר", StartHour: "8:00", EndHour: "16:15", FrontalHours: 4, IndividualHours: 3, Comments: "ok"}
		c := newTestController(map[Date]DayRecord{month.Date(29): stored})
		c.SelectDay(29)

		if _, err := c.SubmitEditor(); err != nil {
			t.Fatalf("SubmitEditor failed: %v", err)
		}
		if got, _ := c.Store().Get(29); got != stored {
			t.Fatalf("expected %#v, got %#v", stored, got)
		}
	})
}
