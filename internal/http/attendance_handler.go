package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/attendance"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceService interface {
	CurrentMonth() attendance.Month
	MonthView(ctx context.Context, principal application.Principal, month attendance.Month) (application.MonthView, error)
	SelectDay(ctx context.Context, principal application.Principal, month attendance.Month, day int) (application.MonthView, error)
	EditFields(ctx context.Context, principal application.Principal, month attendance.Month, changes []application.FieldChange) (application.MonthView, error)
	CloseEditor(ctx context.Context, principal application.Principal, month attendance.Month) (application.MonthView, error)
	SubmitDay(ctx context.Context, principal application.Principal, month attendance.Month) (application.SubmitDayResult, error)
	ExportMonth(ctx context.Context, principal application.Principal, month attendance.Month, w io.Writer) error
}

// AttendanceHandler serves the monthly calendar and day editor endpoints.
type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

// request resolves the principal and the {month} path parameter. It answers
// the request itself and returns ok=false when either is missing or invalid.
func (h *AttendanceHandler) request(w http.ResponseWriter, r *http.Request) (application.Principal, attendance.Month, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Principal{}, attendance.Month{}, false
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return application.Principal{}, attendance.Month{}, false
	}

	month, err := attendance.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.log(r.Context(), "request", "error_kind", application.ErrorKind(err)).InfoContext(r.Context(), "invalid month requested", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Principal{}, attendance.Month{}, false
	}
	return principal, month, true
}

// Current handles GET /api/attendance.
func (h *AttendanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, currentMonthResponse{Month: h.service.CurrentMonth().Key()})
}

// Month handles GET /api/attendance/{month}.
func (h *AttendanceHandler) Month(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	view, err := h.service.MonthView(r.Context(), principal, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthViewDTO(view))
}

// SelectDay handles POST /api/attendance/{month}/days/{day}/select.
func (h *AttendanceHandler) SelectDay(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		h.log(r.Context(), "SelectDay", "error_kind", "bad_request").InfoContext(r.Context(), "non-numeric day", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: errInvalidDay.Error()})
		return
	}

	view, err := h.service.SelectDay(r.Context(), principal, month, day)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthViewDTO(view))
}

// EditFields handles PATCH /api/attendance/{month}/editor.
func (h *AttendanceHandler) EditFields(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	var req editFieldsRequest
	if err := decodeRequest(r, &req); err != nil {
		if isBadRequestBody(err) {
			h.log(r.Context(), "EditFields", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode request", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: errBadRequestBody.Error()})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	changes := make([]application.FieldChange, 0, len(req.Changes))
	for _, c := range req.Changes {
		changes = append(changes, application.FieldChange{Field: attendance.FieldName(c.Field), Value: c.Value})
	}

	view, err := h.service.EditFields(r.Context(), principal, month, changes)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthViewDTO(view))
}

// CloseEditor handles POST /api/attendance/{month}/editor/close.
func (h *AttendanceHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	view, err := h.service.CloseEditor(r.Context(), principal, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthViewDTO(view))
}

// SubmitDay handles POST /api/attendance/{month}/editor/submit. Validation
// failures answer 422 with the per-field messages and the editor state.
func (h *AttendanceHandler) SubmitDay(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	result, err := h.service.SubmitDay(r.Context(), principal, month)
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, submitFailedResponse{
				errorResponse: errorResponse{
					ErrorCode: "VALIDATION_FAILED",
					Message:   msgValidationFailed,
					Errors:    localizeValidationErrors(vErr),
				},
				View: toMonthViewDTO(result.View),
			})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, submitDayResponse{
		View:      toMonthViewDTO(result.View),
		Date:      result.Date.String(),
		Record:    toDayRecordDTO(result.Record),
		Persisted: result.Persisted,
	})
}

// Report handles GET /api/attendance/{month}/report.xlsx.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	principal, month, ok := h.request(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportMonth(r.Context(), principal, month, &buf); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, month.Key()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log(r.Context(), "Report", "month", month.Key()).ErrorContext(r.Context(), "failed to write report", "error", err)
	}
}

type editFieldsRequest struct {
	Changes []fieldChangeDTO `json:"changes" validate:"required,min=1,dive"`
}

type fieldChangeDTO struct {
	Field string `json:"field" validate:"required,oneof=workplace is_absence start_hour end_hour frontal_hours individual_hours staying_hours comments"`
	Value string `json:"value" validate:"max=2000"`
}

type currentMonthResponse struct {
	Month string `json:"month"`
}

type dayRecordDTO struct {
	Workplace       string `json:"workplace"`
	IsAbsence       bool   `json:"is_absence"`
	StartHour       string `json:"start_hour,omitempty"`
	EndHour         string `json:"end_hour,omitempty"`
	FrontalHours    int    `json:"frontal_hours"`
	IndividualHours int    `json:"individual_hours"`
	StayingHours    int    `json:"staying_hours"`
	Comments        string `json:"comments,omitempty"`
	TotalHours      int    `json:"total_hours"`
}

func toDayRecordDTO(r attendance.DayRecord) dayRecordDTO {
	return dayRecordDTO{
		Workplace:       r.Workplace,
		IsAbsence:       r.IsAbsence,
		StartHour:       r.StartHour,
		EndHour:         r.EndHour,
		FrontalHours:    r.FrontalHours,
		IndividualHours: r.IndividualHours,
		StayingHours:    r.StayingHours,
		Comments:        r.Comments,
		TotalHours:      r.TotalHours(),
	}
}

type selectionDTO struct {
	Day  int  `json:"day"`
	Open bool `json:"open"`
}

type fieldDTO struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Value    string `json:"value"`
	Error    string `json:"error,omitempty"`
	Dirty    bool   `json:"dirty"`
}

type editorDTO struct {
	State  string     `json:"state"`
	Fields []fieldDTO `json:"fields"`
}

type monthViewDTO struct {
	Month     string               `json:"month"`
	FirstDay  int                  `json:"first_day"`
	LastDay   int                  `json:"last_day"`
	Days      map[int]dayRecordDTO `json:"days"`
	Selection selectionDTO         `json:"selection"`
	Editor    *editorDTO           `json:"editor,omitempty"`
}

func toMonthViewDTO(view application.MonthView) monthViewDTO {
	dto := monthViewDTO{
		Month:     view.Month.Key(),
		FirstDay:  view.Month.FirstDay(),
		LastDay:   view.Month.LastDay(),
		Days:      make(map[int]dayRecordDTO, len(view.Days)),
		Selection: selectionDTO{Day: view.Selection.Day, Open: view.Selection.Open},
	}
	for _, entry := range view.Days {
		dto.Days[entry.Day] = toDayRecordDTO(entry.Record)
	}
	if view.Editor != nil {
		editor := &editorDTO{State: view.Editor.State.String(), Fields: make([]fieldDTO, 0, len(view.Editor.Fields))}
		for _, f := range view.Editor.Fields {
			field := fieldDTO{
				Name:     string(f.Name),
				Label:    labelFor(string(f.Name)),
				Kind:     string(f.Kind),
				Required: f.Required,
				Value:    f.Value,
				Dirty:    f.Dirty,
			}
			if f.Error != "" {
				field.Error = translateValidationMessage(string(f.Name), f.Error)
			}
			editor.Fields = append(editor.Fields, field)
		}
		dto.Editor = editor
	}
	return dto
}

type submitDayResponse struct {
	View      monthViewDTO `json:"view"`
	Date      string       `json:"date"`
	Record    dayRecordDTO `json:"record"`
	Persisted bool         `json:"persisted"`
}

type submitFailedResponse struct {
	errorResponse
	View monthViewDTO `json:"view"`
}
