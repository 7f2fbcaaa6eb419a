package application

import (
	"time"

	"github.com/example/monthly-attendance/internal/attendance"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// User represents an account known to the identity provider.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthState is what the auth wrapper exposes to views: the current user and whether one is signed in.
type AuthState struct {
	CurrentUser *User
	LoggedIn    bool
}

// SignUpParams captures the data entered on the sign-up form.
type SignUpParams struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// FederatedAuthenticateParams carries an ID token obtained from the federated sign-in popup.
type FederatedAuthenticateParams struct {
	IDToken     string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

// ConfirmPasswordResetParams completes a password reset started by email.
type ConfirmPasswordResetParams struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// UpdatePasswordParams changes the password of the signed-in user.
type UpdatePasswordParams struct {
	Principal       Principal
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// AttendanceRecord is a persisted day record owned by a user.
type AttendanceRecord struct {
	UserID    string
	Date      attendance.Date
	Record    attendance.DayRecord
	UpdatedAt time.Time
}

// MonthView is the state of a user's calendar for one month.
type MonthView struct {
	Month     attendance.Month
	Days      []attendance.DayEntry
	Selection attendance.Selection
	Editor    *attendance.EditorSnapshot
}

// FieldChange is a single raw form edit.
type FieldChange struct {
	Field attendance.FieldName
	Value string
}

// SubmitDayResult reports a successful editor submission.
type SubmitDayResult struct {
	View      MonthView
	Date      attendance.Date
	Record    attendance.DayRecord
	Persisted bool
}
