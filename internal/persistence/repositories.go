package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByFederatedSubject(ctx context.Context, subject string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AttendanceRepository stores submitted attendance days.
type AttendanceRepository interface {
	// UpsertAttendance inserts the record or replaces the one stored for the
	// same user and work date.
	UpsertAttendance(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)
	// ListAttendance returns the user's records with from <= work_date <= to,
	// ordered by work date.
	ListAttendance(ctx context.Context, userID, from, to string) ([]AttendanceRecord, error)
}
