package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/attendance"
	"github.com/example/monthly-attendance/internal/persistence"
)

var (
	userCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.February, 12, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceMonth is the month containing ReferenceTime.
func ReferenceMonth() attendance.Month {
	return attendance.MonthOf(referenceTime)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account that can be materialised for
// application or persistence tests.
type UserFixture struct {
	ID               string
	Email            string
	DisplayName      string
	PasswordHash     string
	FederatedSubject *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserFederatedSubject links the fixture to a federated identity.
func WithUserFederatedSubject(subject string) UserOption {
	return func(f *UserFixture) {
		f.FederatedSubject = &subject
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:               f.ID,
		Email:            f.Email,
		DisplayName:      f.DisplayName,
		PasswordHash:     f.PasswordHash,
		FederatedSubject: copyStringPtr(f.FederatedSubject),
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		UserID:      fmt.Sprintf("user-%03d", idx),
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: fmt.Sprintf("fingerprint-%03d", idx),
		ExpiresAt:   referenceTime.Add(8 * time.Hour),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the user ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

// ------------------------------ Day fixtures ------------------------------

// DayFixture represents one submitted attendance day.
type DayFixture struct {
	UserID    string
	Date      attendance.Date
	Record    attendance.DayRecord
	UpdatedAt time.Time
}

// DayOption configures the generated day fixture.
type DayOption func(*DayFixture)

// NewDayFixture returns a present working day in ReferenceMonth with
// optional overrides.
func NewDayFixture(opts ...DayOption) DayFixture {
	fixture := DayFixture{
		UserID: "user-001",
		Date:   ReferenceMonth().Date(1),
		Record: attendance.DayRecord{
			Workplace:       "בית ספר",
			StartHour:       "08:00",
			EndHour:         "14:00",
			FrontalHours:    4,
			IndividualHours: 1,
			StayingHours:    1,
		},
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDayUser sets the owner of the day.
func WithDayUser(id string) DayOption {
	return func(f *DayFixture) {
		f.UserID = id
	}
}

// WithDay moves the fixture to day of ReferenceMonth.
func WithDay(day int) DayOption {
	return func(f *DayFixture) {
		f.Date = ReferenceMonth().Date(day)
	}
}

// WithDayDate sets the full calendar date.
func WithDayDate(date attendance.Date) DayOption {
	return func(f *DayFixture) {
		f.Date = date
	}
}

// WithDayWorkplace overrides the workplace.
func WithDayWorkplace(workplace string) DayOption {
	return func(f *DayFixture) {
		f.Record.Workplace = workplace
	}
}

// WithDayHours overrides the three duration fields.
func WithDayHours(frontal, individual, staying int) DayOption {
	return func(f *DayFixture) {
		f.Record.FrontalHours = frontal
		f.Record.IndividualHours = individual
		f.Record.StayingHours = staying
	}
}

// WithDayAbsence marks the day absent and clears the hour fields.
func WithDayAbsence() DayOption {
	return func(f *DayFixture) {
		f.Record = attendance.DayRecord{
			Workplace: f.Record.Workplace,
			IsAbsence: true,
			Comments:  f.Record.Comments,
		}
	}
}

// WithDayComments sets the comments.
func WithDayComments(comments string) DayOption {
	return func(f *DayFixture) {
		f.Record.Comments = comments
	}
}

// Application returns the fixture as an application.AttendanceRecord.
func (f DayFixture) Application() application.AttendanceRecord {
	return application.AttendanceRecord{
		UserID:    f.UserID,
		Date:      f.Date,
		Record:    f.Record,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.AttendanceRecord.
func (f DayFixture) Persistence() persistence.AttendanceRecord {
	return persistence.AttendanceRecord{
		UserID:          f.UserID,
		WorkDate:        f.Date.String(),
		Workplace:       f.Record.Workplace,
		IsAbsence:       f.Record.IsAbsence,
		StartHour:       f.Record.StartHour,
		EndHour:         f.Record.EndHour,
		FrontalHours:    f.Record.FrontalHours,
		IndividualHours: f.Record.IndividualHours,
		StayingHours:    f.Record.StayingHours,
		Comments:        f.Record.Comments,
		CreatedAt:       f.UpdatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
