package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/monthly-attendance/internal/attendance"
	"github.com/example/monthly-attendance/internal/report"
)

const defaultWorkspaceCacheSize = 256

// AttendanceRepository persists submitted day records.
type AttendanceRepository interface {
	ListMonthRecords(ctx context.Context, userID string, month attendance.Month) ([]AttendanceRecord, error)
	UpsertDayRecord(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)
}

type workspaceKey struct {
	userID string
	month  string
}

// workspace is one user's calendar view of one month. The mutex serializes
// every operation on the controller it guards. unpersisted holds submitted
// days whose last save failed.
type workspace struct {
	mu          sync.Mutex
	controller  *attendance.Controller
	unpersisted map[attendance.Date]struct{}
}

func (ws *workspace) markPersisted(date attendance.Date, persisted bool) {
	if persisted {
		delete(ws.unpersisted, date)
		return
	}
	if ws.unpersisted == nil {
		ws.unpersisted = make(map[attendance.Date]struct{})
	}
	ws.unpersisted[date] = struct{}{}
}

func (ws *workspace) unpersistedDates() []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	dates := make([]string, 0, len(ws.unpersisted))
	for date := range ws.unpersisted {
		dates = append(dates, date.String())
	}
	sort.Strings(dates)
	return dates
}

// AttendanceService runs the calendar selection flow for signed-in users and
// persists what they submit.
type AttendanceService struct {
	records  AttendanceRepository
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger

	mu         sync.Mutex
	workspaces *lru.Cache[workspaceKey, *workspace]
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(records AttendanceRepository, cacheSize int, location *time.Location, now func() time.Time) (*AttendanceService, error) {
	return NewAttendanceServiceWithLogger(records, cacheSize, location, now, nil)
}

// NewAttendanceServiceWithLogger constructs an AttendanceService with a specified logger.
func NewAttendanceServiceWithLogger(records AttendanceRepository, cacheSize int, location *time.Location, now func() time.Time, logger *slog.Logger) (*AttendanceService, error) {
	if cacheSize <= 0 {
		cacheSize = defaultWorkspaceCacheSize
	}
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	s := &AttendanceService{
		records:  records,
		now:      now,
		location: location,
		logger:   defaultLogger(logger),
	}
	cache, err := lru.NewWithEvict[workspaceKey, *workspace](cacheSize, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create workspace cache: %w", err)
	}
	s.workspaces = cache
	return s, nil
}

// onEvict reports evicted workspaces that still hold days the repository never stored.
func (s *AttendanceService) onEvict(key workspaceKey, ws *workspace) {
	dates := ws.unpersistedDates()
	if len(dates) == 0 {
		return
	}
	ctx := context.Background()
	s.loggerWith(ctx, "EvictWorkspace", "user_id", key.userID, "month", key.month).
		WarnContext(ctx, "evicted workspace with unsaved days", "dates", dates)
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// CurrentMonth returns the month shown when no month is requested.
func (s *AttendanceService) CurrentMonth() attendance.Month {
	return attendance.MonthOf(s.now().In(s.location))
}

// workspace returns the cached workspace for principal and month, loading the
// month's persisted records on first access.
func (s *AttendanceService) workspace(ctx context.Context, principal Principal, month attendance.Month) (*workspace, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	key := workspaceKey{userID: principal.UserID, month: month.Key()}
	if ws, ok := s.workspaces.Get(key); ok {
		return ws, nil
	}

	seed := make(map[attendance.Date]attendance.DayRecord)
	if s.records != nil {
		records, err := s.records.ListMonthRecords(ctx, principal.UserID, month)
		if err != nil {
			return nil, fmt.Errorf("load %s records: %w", month, err)
		}
		for _, r := range records {
			seed[r.Date] = r.Record
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.workspaces.Get(key); ok {
		return ws, nil
	}
	ws := &workspace{controller: attendance.NewController(attendance.NewMonthStore(month, seed))}
	s.workspaces.Add(key, ws)
	return ws, nil
}

func viewOf(c *attendance.Controller) MonthView {
	view := MonthView{
		Month:     c.Month(),
		Days:      c.Store().Records(),
		Selection: c.Selection(),
	}
	if editor, ok := c.Editor(); ok {
		snapshot := editor.Snapshot()
		view.Editor = &snapshot
	}
	return view
}

// MonthView returns the calendar state for month.
func (s *AttendanceService) MonthView(ctx context.Context, principal Principal, month attendance.Month) (MonthView, error) {
	ws, err := s.workspace(ctx, principal, month)
	if err != nil {
		s.loggerWith(ctx, "MonthView", "user_id", principal.UserID, "month", month.Key()).
			ErrorContext(ctx, "failed to open month", "error", err, "error_kind", ErrorKind(err))
		return MonthView{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	return viewOf(ws.controller), nil
}

// SelectDay opens the editor for day. Days outside the month leave the view unchanged.
func (s *AttendanceService) SelectDay(ctx context.Context, principal Principal, month attendance.Month, day int) (MonthView, error) {
	logger := s.loggerWith(ctx, "SelectDay", "user_id", principal.UserID, "month", month.Key(), "day", day)

	ws, err := s.workspace(ctx, principal, month)
	if err != nil {
		logger.ErrorContext(ctx, "failed to open month", "error", err, "error_kind", ErrorKind(err))
		return MonthView{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.controller.SelectDay(day) {
		logger.DebugContext(ctx, "day outside month ignored")
	}
	return viewOf(ws.controller), nil
}

// EditFields applies form edits in order to the open editor. It stops at the first rejected edit.
func (s *AttendanceService) EditFields(ctx context.Context, principal Principal, month attendance.Month, changes []FieldChange) (view MonthView, err error) {
	logger := s.loggerWith(ctx, "EditFields", "user_id", principal.UserID, "month", month.Key(), "changes", len(changes))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to edit fields", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var ws *workspace
	ws, err = s.workspace(ctx, principal, month)
	if err != nil {
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, change := range changes {
		if err = ws.controller.EditField(change.Field, change.Value); err != nil {
			return
		}
	}
	view = viewOf(ws.controller)
	return
}

// CloseEditor hides the editor without saving.
func (s *AttendanceService) CloseEditor(ctx context.Context, principal Principal, month attendance.Month) (MonthView, error) {
	ws, err := s.workspace(ctx, principal, month)
	if err != nil {
		return MonthView{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.controller.CloseEditor()
	return viewOf(ws.controller), nil
}

// SubmitDay validates and submits the open editor. On success the workspace
// is updated and closed before the record is persisted; a persistence failure
// is logged and reported through Persisted without undoing the local update.
// On validation failure it returns the current view together with a
// *ValidationError.
func (s *AttendanceService) SubmitDay(ctx context.Context, principal Principal, month attendance.Month) (result SubmitDayResult, err error) {
	logger := s.loggerWith(ctx, "SubmitDay", "user_id", principal.UserID, "month", month.Key())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "day submission failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("date", result.Date.String(), "persisted", result.Persisted).InfoContext(ctx, "day submitted")
	}()

	var ws *workspace
	ws, err = s.workspace(ctx, principal, month)
	if err != nil {
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	var outcome attendance.SubmitOutcome
	outcome, err = ws.controller.SubmitEditor()
	if err != nil {
		return
	}
	if !outcome.Saved {
		result.View = viewOf(ws.controller)
		err = fieldValidationError(outcome.Errors)
		return
	}

	result = SubmitDayResult{
		View:   viewOf(ws.controller),
		Date:   outcome.Date,
		Record: outcome.Record,
	}
	if s.records == nil {
		return
	}

	_, persistErr := s.records.UpsertDayRecord(ctx, AttendanceRecord{
		UserID:    principal.UserID,
		Date:      outcome.Date,
		Record:    outcome.Record,
		UpdatedAt: s.now(),
	})
	result.Persisted = persistErr == nil
	ws.markPersisted(outcome.Date, result.Persisted)
	if persistErr != nil {
		logger.ErrorContext(ctx, "failed to persist day record", "date", outcome.Date.String(), "error", persistErr, "error_kind", ErrorKind(persistErr))
	}
	return
}

// ExportMonth writes the month's records as an XLSX workbook.
func (s *AttendanceService) ExportMonth(ctx context.Context, principal Principal, month attendance.Month, w io.Writer) (err error) {
	logger := s.loggerWith(ctx, "ExportMonth", "user_id", principal.UserID, "month", month.Key())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "export failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "month exported")
	}()

	var ws *workspace
	ws, err = s.workspace(ctx, principal, month)
	if err != nil {
		return
	}

	ws.mu.Lock()
	days := ws.controller.Store().Records()
	ws.mu.Unlock()

	err = report.WriteMonth(w, month, days)
	return
}
