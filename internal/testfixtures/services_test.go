package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/attendance"
)

type capturingAttendanceRepo struct {
	upserted []application.AttendanceRecord
}

func (c *capturingAttendanceRepo) ListMonthRecords(ctx context.Context, userID string, month attendance.Month) ([]application.AttendanceRecord, error) {
	return nil, nil
}

func (c *capturingAttendanceRepo) UpsertDayRecord(ctx context.Context, record application.AttendanceRecord) (application.AttendanceRecord, error) {
	c.upserted = append(c.upserted, record)
	return record, nil
}

func TestServiceFactoryNewAttendanceService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingAttendanceRepo{}

	svc, err := factory.NewAttendanceService(AttendanceServiceDeps{Records: repo})
	if err != nil {
		t.Fatalf("NewAttendanceService returned error: %v", err)
	}

	if got := svc.CurrentMonth(); got != ReferenceMonth() {
		t.Fatalf("expected current month %s, got %s", ReferenceMonth(), got)
	}

	ctx := context.Background()
	user := NewUserFixture()
	month := ReferenceMonth()
	day := NewDayFixture(WithDayUser(user.ID), WithDay(5), WithDayAbsence())

	if _, err := svc.SelectDay(ctx, user.Principal(), month, day.Date.Day); err != nil {
		t.Fatalf("SelectDay returned error: %v", err)
	}
	changes := []application.FieldChange{
		{Field: attendance.FieldIsAbsence, Value: "true"},
		{Field: attendance.FieldWorkplace, Value: day.Record.Workplace},
	}
	if _, err := svc.EditFields(ctx, user.Principal(), month, changes); err != nil {
		t.Fatalf("EditFields returned error: %v", err)
	}

	result, err := svc.SubmitDay(ctx, user.Principal(), month)
	if err != nil {
		t.Fatalf("SubmitDay returned error: %v", err)
	}
	if !result.Persisted || len(repo.upserted) != 1 {
		t.Fatalf("expected one persisted record, got %d (persisted=%v)", len(repo.upserted), result.Persisted)
	}
	if got := repo.upserted[0]; got.Record != day.Record || got.Date != day.Date {
		t.Fatalf("unexpected record: %#v", got)
	}
	if !repo.upserted[0].UpdatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), repo.upserted[0].UpdatedAt)
	}
}

type passwordOnlyIdentity struct {
	application.IdentityProvider
	user application.User
}

func (p passwordOnlyIdentity) SignInWithPassword(ctx context.Context, email, password string) (application.User, error) {
	if email != p.user.Email || password != "Secret123" {
		return application.User{}, application.ErrInvalidCredentials
	}
	return p.user, nil
}

func TestServiceFactoryNewAuthServiceUsesTokenSequence(t *testing.T) {
	tokens := NewTokenSequence("sess")
	factory := NewServiceFactory(WithTokens(tokens))
	user := NewUserFixture()
	identity := passwordOnlyIdentity{user: application.User{ID: user.ID, Email: user.Email}}

	svc := factory.NewAuthService(AuthServiceDeps{Identity: identity, SessionTTL: time.Hour})
	result, err := svc.Authenticate(context.Background(), application.AuthenticateParams{
		Email:    user.Email,
		Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if result.Session.ID != "sess-0001" || result.Session.Token != "sess-0002" {
		t.Fatalf("unexpected session identifiers: id=%q token=%q", result.Session.ID, result.Session.Token)
	}
	if tokens.Issued() != 2 {
		t.Fatalf("expected 2 issued tokens, got %d", tokens.Issued())
	}
	if want := factory.Clock.Now().Add(time.Hour); !result.Session.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, result.Session.ExpiresAt)
	}
}
