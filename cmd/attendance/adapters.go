package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/attendance"
	"github.com/example/monthly-attendance/internal/persistence"
)

// mapPersistenceError translates storage sentinels into the ones the
// application layer checks for.
func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrAlreadyExists):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	default:
		return err
	}
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapPersistenceError(a.repo.DeleteExpiredSessions(ctx, reference))
}

type attendanceRepositoryAdapter struct {
	repo persistence.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo persistence.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) ListMonthRecords(ctx context.Context, userID string, month attendance.Month) ([]application.AttendanceRecord, error) {
	from := month.Date(month.FirstDay()).String()
	to := month.Date(month.LastDay()).String()

	stored, err := a.repo.ListAttendance(ctx, userID, from, to)
	if err != nil {
		return nil, mapPersistenceError(err)
	}

	records := make([]application.AttendanceRecord, 0, len(stored))
	for _, model := range stored {
		record, err := toApplicationAttendance(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (a *attendanceRepositoryAdapter) UpsertDayRecord(ctx context.Context, record application.AttendanceRecord) (application.AttendanceRecord, error) {
	stored, err := a.repo.UpsertAttendance(ctx, toPersistenceAttendance(record))
	if err != nil {
		return application.AttendanceRecord{}, mapPersistenceError(err)
	}
	return toApplicationAttendance(stored)
}

func toApplicationAttendance(model persistence.AttendanceRecord) (application.AttendanceRecord, error) {
	date, err := attendance.ParseDate(model.WorkDate)
	if err != nil {
		return application.AttendanceRecord{}, fmt.Errorf("stored attendance for %s: %w", model.UserID, err)
	}
	return application.AttendanceRecord{
		UserID: model.UserID,
		Date:   date,
		Record: attendance.DayRecord{
			Workplace:       model.Workplace,
			IsAbsence:       model.IsAbsence,
			StartHour:       model.StartHour,
			EndHour:         model.EndHour,
			FrontalHours:    model.FrontalHours,
			IndividualHours: model.IndividualHours,
			StayingHours:    model.StayingHours,
			Comments:        model.Comments,
		},
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func toPersistenceAttendance(record application.AttendanceRecord) persistence.AttendanceRecord {
	return persistence.AttendanceRecord{
		UserID:          record.UserID,
		WorkDate:        record.Date.String(),
		Workplace:       record.Record.Workplace,
		IsAbsence:       record.Record.IsAbsence,
		StartHour:       record.Record.StartHour,
		EndHour:         record.Record.EndHour,
		FrontalHours:    record.Record.FrontalHours,
		IndividualHours: record.Record.IndividualHours,
		StayingHours:    record.Record.StayingHours,
		Comments:        record.Record.Comments,
		UpdatedAt:       record.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
