package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/config"
	"github.com/example/monthly-attendance/internal/persistence"
	"github.com/example/monthly-attendance/internal/persistence/sqlite"
)

func openTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.Open(filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func testConfig() config.Config {
	return config.Config{
		SessionTTL:         time.Hour,
		ResetSecret:        "0123456789abcdef0123456789abcdef",
		ResetTokenTTL:      time.Hour,
		ResetURL:           "http://localhost:3000/reset-password",
		Location:           time.UTC,
		WorkspaceCacheSize: 4,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, target, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func TestEndToEndAttendanceFlow(t *testing.T) {
	storage := openTestStorage(t)
	now := func() time.Time { return time.Date(2024, 2, 12, 8, 30, 0, 0, time.UTC) }

	handler, err := newHandler(storage, testConfig(), now, quietLogger())
	require.NoError(t, err)
	c := &client{t: t, handler: handler}

	rec := c.do(http.MethodPost, "/api/auth/signup", `{"email":"dana@example.com","password":"Secret123","confirm_password":"Secret123","display_name":"דנה"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/auth/signup", `{"email":"dana@example.com","password":"Secret123","confirm_password":"Secret123"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "דוא״ל כבר קיים במערכת")

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"dana@example.com","password":"Wrong1234"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_INVALID_CREDENTIALS")

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"dana@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	c.token = session.Token

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"dana@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "signed-in users are sent home")

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/attendance/2024-02/days/5/select", "").Code)
	rec = c.do(http.MethodPatch, "/api/attendance/2024-02/editor", `{"changes":[
		{"field":"workplace","value":"תיכון"},
		{"field":"is_absence","value":"true"},
		{"field":"comments","value":"מחלה"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/attendance/2024-02/editor/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		Persisted bool `json:"persisted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.True(t, submitted.Persisted)

	stored, err := storage.Attendance.ListAttendance(context.Background(), session.User.ID, "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "2024-02-05", stored[0].WorkDate)
	assert.True(t, stored[0].IsAbsence)
	assert.Equal(t, "תיכון", stored[0].Workplace)

	restarted, err := newHandler(storage, testConfig(), now, quietLogger())
	require.NoError(t, err)
	c.handler = restarted
	rec = c.do(http.MethodGet, "/api/attendance/2024-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Days map[string]struct {
			Workplace string `json:"workplace"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "תיכון", view.Days["5"].Workplace, "records survive a restart")

	require.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/api/auth/logout", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/attendance/2024-02", "").Code)
}

func TestSessionAdapterMapsNotFound(t *testing.T) {
	storage := openTestStorage(t)
	adapter := newSessionRepositoryAdapter(storage.Sessions)

	_, err := adapter.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrNotFound))
	assert.True(t, errors.Is(mapPersistenceError(persistence.ErrAlreadyExists), application.ErrAlreadyExists))
}

func TestAttendanceAdapterRejectsCorruptDates(t *testing.T) {
	_, err := toApplicationAttendance(persistence.AttendanceRecord{UserID: "user-1", WorkDate: "05/02/2024"})
	require.Error(t, err)
}
