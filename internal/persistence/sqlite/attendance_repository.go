package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/monthly-attendance/internal/persistence"
)

const attendanceColumns = `user_id, work_date, workplace, is_absence, start_hour, end_hour,
	frontal_hours, individual_hours, staying_hours, comments, created_at, updated_at`

// AttendanceRepository implements persistence.AttendanceRepository using SQLite.
type AttendanceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertAttendance stores record, replacing any record of the same user and
// work date. The original creation time of a replaced record is kept.
func (r *AttendanceRepository) UpsertAttendance(ctx context.Context, record persistence.AttendanceRecord) (persistence.AttendanceRecord, error) {
	record.WorkDate = strings.TrimSpace(record.WorkDate)
	if record.UserID == "" || record.WorkDate == "" {
		return persistence.AttendanceRecord{}, persistence.ErrConstraintViolation
	}
	if _, err := time.Parse(time.DateOnly, record.WorkDate); err != nil {
		return persistence.AttendanceRecord{}, persistence.ErrConstraintViolation
	}

	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.UpdatedAt
	}

	query := `
		INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, work_date) DO UPDATE SET
			workplace = excluded.workplace,
			is_absence = excluded.is_absence,
			start_hour = excluded.start_hour,
			end_hour = excluded.end_hour,
			frontal_hours = excluded.frontal_hours,
			individual_hours = excluded.individual_hours,
			staying_hours = excluded.staying_hours,
			comments = excluded.comments,
			updated_at = excluded.updated_at
		RETURNING ` + attendanceColumns

	row := r.helper.QueryRow(ctx, query,
		record.UserID,
		record.WorkDate,
		record.Workplace,
		record.IsAbsence,
		record.StartHour,
		record.EndHour,
		record.FrontalHours,
		record.IndividualHours,
		record.StayingHours,
		record.Comments,
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
	)
	return r.scanRecord(row)
}

// ListAttendance returns the user's records between from and to inclusive
// (YYYY-MM-DD), ordered by work date.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, userID, from, to string) ([]persistence.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE user_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date ASC
	`
	rows, err := r.helper.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.AttendanceRecord
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func (r *AttendanceRepository) scanRecord(row rowScanner) (persistence.AttendanceRecord, error) {
	var (
		record               persistence.AttendanceRecord
		createdAt, updatedAt string
	)
	err := row.Scan(
		&record.UserID,
		&record.WorkDate,
		&record.Workplace,
		&record.IsAbsence,
		&record.StartHour,
		&record.EndHour,
		&record.FrontalHours,
		&record.IndividualHours,
		&record.StayingHours,
		&record.Comments,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.AttendanceRecord{}, r.mapper.MapError(err)
	}
	if record.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	if record.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.AttendanceRecord{}, err
	}
	return record, nil
}
