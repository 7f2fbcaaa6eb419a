package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/attendance"
)

var (
	errBadRequestBody      = errors.New("תוכן הבקשה אינו תקין.")
	errInvalidDay          = errors.New("היום שנבחר אינו תקין.")
	errMissingSessionToken = errors.New("יש להתחבר למערכת.")
)

const (
	msgInvalidCredentials = "האימייל או הסיסמה שגויים"
	msgEmailExists        = "דוא״ל כבר קיים במערכת"
	msgValidationFailed   = "יש לתקן את השדות המסומנים."
	msgPasswordUpdated    = "!הסיסמה עודכנה בהצלחה"
	msgResetRequested     = "אם הכתובת רשומה במערכת, נשלח אליה קישור לאיפוס הסיסמה."
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application and attendance errors to responses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	status, body := errorPayload(err)
	r.writeJSON(ctx, w, status, body)
}

func errorPayload(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID_CREDENTIALS", Message: msgInvalidCredentials}
	case errors.Is(err, application.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_SESSION_EXPIRED", Message: "פג תוקף ההתחברות. יש להתחבר מחדש."}
	case errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_SESSION_REVOKED", Message: "ההתחברות בוטלה. יש להתחבר מחדש."}
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_UNAUTHORIZED", Message: errMissingSessionToken.Error()}
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{ErrorCode: "AUTH_EMAIL_EXISTS", Message: msgEmailExists}
	case errors.Is(err, application.ErrInvalidResetToken):
		return http.StatusBadRequest, errorResponse{ErrorCode: "AUTH_INVALID_RESET_TOKEN", Message: "קישור האיפוס אינו תקף או שפג תוקפו."}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)}
	case errors.Is(err, attendance.ErrInvalidMonth):
		return http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_MONTH", Message: "החודש המבוקש אינו תקין."}
	case errors.Is(err, attendance.ErrEditorClosed):
		return http.StatusConflict, errorResponse{ErrorCode: "EDITOR_CLOSED", Message: "יש לבחור יום לפני עריכת הנוכחות."}
	case errors.Is(err, attendance.ErrEditorSubmitted):
		return http.StatusConflict, errorResponse{ErrorCode: "EDITOR_SUBMITTED", Message: "היום כבר נשמר. יש לבחור אותו מחדש כדי לערוך שוב."}
	case errors.Is(err, attendance.ErrUnknownField), errors.Is(err, attendance.ErrInvalidFieldValue):
		return http.StatusUnprocessableEntity, errorResponse{ErrorCode: "INVALID_FIELD", Message: "השדה או הערך שנשלחו אינם תקינים."}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   msgValidationFailed,
			Errors:    localizeValidationErrors(vErr),
		}
	}

	return http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return handlerLogger(ctx, r.logger, "responder", "")
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "הבקשה אינה תקינה."
	case http.StatusUnauthorized:
		return errMissingSessionToken.Error()
	case http.StatusForbidden:
		return "אין הרשאה לבצע פעולה זו."
	case http.StatusNotFound:
		return "אופס! הדף שחיפשת אינו קיים"
	case http.StatusMethodNotAllowed:
		return "הפעולה אינה נתמכת בכתובת זו."
	case http.StatusConflict:
		return "הבקשה מתנגשת במצב הנוכחי."
	case http.StatusUnprocessableEntity:
		return msgValidationFailed
	case http.StatusBadGateway:
		return "השרת אינו זמין כרגע."
	default:
		return "אירעה שגיאה בשרת. נסו שוב מאוחר יותר."
	}
}

// fieldLabels are the form labels shown to users.
var fieldLabels = map[string]string{
	"email":            "דואר אלקטרוני",
	"password":         "סיסמה",
	"confirm_password": "אימות סיסמה",
	"current_password": "סיסמה נוכחית",
	"new_password":     "סיסמה חדשה",
	"display_name":     "שם משתמש",
	"token":            "קישור איפוס",
	"id_token":         "אסימון התחברות",
	"changes":          "שינויים",
	"field":            "שדה",
	"value":            "ערך",
	"workplace":        "מקום עבודה",
	"is_absence":       "חיסור",
	"start_hour":       "שעת התחלה",
	"end_hour":         "שעת סיום",
	"frontal_hours":    "שעות פרונטליות",
	"individual_hours": "שעות פרטניות",
	"staying_hours":    "שעות שהייה",
	"comments":         "הערות",
}

func labelFor(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(field, msg)
	}
	return translated
}

func translateValidationMessage(field, message string) string {
	switch message {
	case "email is invalid":
		return "כתובת הדואר האלקטרוני אינה תקינה"
	case "password must be 8-30 characters, include at least one uppercase letter, one lowercase letter, and one number":
		return "הסיסמה צריכה להכיל 8 עד 30 תווים, לפחות אות גדולה אחת, אות קטנה אחת וספרה אחת"
	case "passwords do not match":
		return "הסיסמאות אינן תואמות"
	case "current password is incorrect":
		return "הסיסמה הנוכחית שגויה"
	case "reset token is required":
		return "קישור האיפוס חסר או פגום"
	case "workplace must contain Hebrew text only":
		return "שדה מקום העבודה יכול להכיל רק טקסט בעברית"
	}

	label := labelFor(field)
	switch {
	case strings.HasSuffix(message, " is required"):
		return "שדה " + label + " הוא חובה"
	case strings.HasSuffix(message, " must be a number"):
		return "שדה " + label + " צריך להיות מספר"
	case strings.HasSuffix(message, " must be in HH:MM format"):
		return "HH:MM שדה " + label + " צריך להיות בפורמט"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}
