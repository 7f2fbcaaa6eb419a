package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/example/monthly-attendance/internal/application"
)

func newAttendanceRouter(t *testing.T) http.Handler {
	t.Helper()

	now := func() time.Time { return time.Date(2024, 2, 12, 8, 30, 0, 0, time.UTC) }
	service, err := application.NewAttendanceService(nil, 8, time.UTC, now)
	if err != nil {
		t.Fatalf("NewAttendanceService failed: %v", err)
	}
	return NewRouter(RouterConfig{
		Attendance: NewAttendanceHandler(service, nil),
		Sessions:   sessionValidatorStub{principals: map[string]application.Principal{"tok-1": {UserID: "user-1"}}},
	})
}

func decodeView(t *testing.T, body []byte) monthViewDTO {
	t.Helper()
	var view monthViewDTO
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("failed to decode view %q: %v", body, err)
	}
	return view
}

func TestAttendanceHandlers(t *testing.T) {
	t.Parallel()

	t.Run("current month key", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodGet, "/api/attendance", "", "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body currentMonthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Month != "2024-02" {
			t.Fatalf("unexpected body %q (err=%v)", rec.Body.String(), err)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodGet, "/api/attendance/2024-02", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid month is a bad request", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodGet, "/api/attendance/2024-13", "", "tok-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.ErrorCode != "INVALID_MONTH" {
			t.Fatalf("unexpected body %#v", body)
		}
	})

	t.Run("select edit and submit a day", func(t *testing.T) {
		t.Parallel()

		router := newAttendanceRouter(t)

		rec := serve(router, http.MethodPost, "/api/attendance/2024-02/days/15/select", "", "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("select: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		view := decodeView(t, rec.Body.Bytes())
		if !view.Selection.Open || view.Selection.Day != 15 || view.Editor == nil || view.Editor.State != "empty" {
			t.Fatalf("unexpected view after select: %#v", view)
		}
		if view.LastDay != 29 {
			t.Fatalf("expected leap February to end on 29, got %d", view.LastDay)
		}

		rec = serve(router, http.MethodPatch, "/api/attendance/2024-02/editor", `{"changes":[
			{"field":"workplace","value":"בית ספר"},
			{"field":"start_hour","value":"08:00"},
			{"field":"end_hour","value":"14:00"},
			{"field":"frontal_hours","value":"4"},
			{"field":"individual_hours","value":"1"},
			{"field":"staying_hours","value":"1"}
		]}`, "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("edit: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = serve(router, http.MethodPost, "/api/attendance/2024-02/editor/submit", "", "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("submit: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var submitted submitDayResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
			t.Fatalf("decode submit: %v", err)
		}
		if submitted.Date != "2024-02-15" || submitted.Record.TotalHours != 6 || submitted.View.Selection.Open {
			t.Fatalf("unexpected submit response: %#v", submitted)
		}
		if got := submitted.View.Days[15].Workplace; got != "בית ספר" {
			t.Fatalf("expected stored workplace, got %q", got)
		}
	})

	t.Run("submit with invalid fields reports Hebrew messages", func(t *testing.T) {
		t.Parallel()

		router := newAttendanceRouter(t)
		serve(router, http.MethodPost, "/api/attendance/2024-02/days/3/select", "", "tok-1")
		serve(router, http.MethodPatch, "/api/attendance/2024-02/editor",
			`{"changes":[{"field":"workplace","value":"school"},{"field":"start_hour","value":"8am"}]}`, "tok-1")

		rec := serve(router, http.MethodPost, "/api/attendance/2024-02/editor/submit", "", "tok-1")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		var body submitFailedResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Errors["workplace"] != "שדה מקום העבודה יכול להכיל רק טקסט בעברית" {
			t.Fatalf("unexpected workplace error %q", body.Errors["workplace"])
		}
		if body.Errors["start_hour"] != "HH:MM שדה שעת התחלה צריך להיות בפורמט" {
			t.Fatalf("unexpected start hour error %q", body.Errors["start_hour"])
		}
		if body.View.Editor == nil || body.View.Editor.State != "validation_failed" {
			t.Fatalf("expected editor to stay open with errors, got %#v", body.View.Editor)
		}
	})

	t.Run("editing without an open editor conflicts", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodPatch, "/api/attendance/2024-02/editor",
			`{"changes":[{"field":"comments","value":"x"}]}`, "tok-1")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.ErrorCode != "EDITOR_CLOSED" {
			t.Fatalf("unexpected body %#v", body)
		}
	})

	t.Run("unknown field names are rejected before reaching the editor", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodPatch, "/api/attendance/2024-02/editor",
			`{"changes":[{"field":"salary","value":"1"}]}`, "tok-1")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.Errors["changes[0].field"] == "" {
			t.Fatalf("expected error on changes[0].field, got %#v", body.Errors)
		}
	})

	t.Run("out of range day leaves the editor closed", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodPost, "/api/attendance/2024-02/days/30/select", "", "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if view := decodeView(t, rec.Body.Bytes()); view.Selection.Open || view.Editor != nil {
			t.Fatalf("expected no selection, got %#v", view)
		}
	})

	t.Run("non-numeric day is a bad request", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodPost, "/api/attendance/2024-02/days/first/select", "", "tok-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("report downloads a workbook", func(t *testing.T) {
		t.Parallel()

		rec := serve(newAttendanceRouter(t), http.MethodGet, "/api/attendance/2024-02/report.xlsx", "", "tok-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
			t.Fatalf("unexpected content type %q", ct)
		}
		if rec.Body.Len() < 4 || string(rec.Body.Bytes()[:2]) != "PK" {
			t.Fatal("expected a zip container")
		}
	})
}
