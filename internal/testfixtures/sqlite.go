package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/monthly-attendance/internal/persistence"
	"github.com/example/monthly-attendance/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a migrated SQLite
// database in a temporary directory.
type SQLiteHarness struct {
	Storage    *sqlite.Storage
	Users      persistence.UserRepository
	Sessions   persistence.SessionRepository
	Attendance persistence.AttendanceRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a temporary database. Callers may
// invoke Close; a cleanup callback is also registered with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	storage, err := sqlite.Open(filepath.Join(tb.TempDir(), "attendance.db"))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:    storage,
		Users:      storage.Users,
		Sessions:   storage.Sessions,
		Attendance: storage.Attendance,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
