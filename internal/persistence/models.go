package persistence

import "time"

// User represents an account stored for the identity provider.
type User struct {
	ID               string
	Email            string
	DisplayName      string
	PasswordHash     string
	FederatedSubject *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a user.
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

// AttendanceRecord is one submitted day of a user's attendance.
// WorkDate is stored as YYYY-MM-DD.
type AttendanceRecord struct {
	UserID          string
	WorkDate        string
	Workplace       string
	IsAbsence       bool
	StartHour       string
	EndHour         string
	FrontalHours    int
	IndividualHours int
	StayingHours    int
	Comments        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
