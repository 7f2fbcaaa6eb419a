// Package http exposes the attendance service over a JSON API.
//
// Public-only endpoints (signed-in callers are redirected to /):
//   - POST /api/auth/signup, POST /api/auth/login, POST /api/auth/login/federated.
//
// Public endpoints:
//   - GET /api/auth/session reports whether the caller is signed in.
//   - POST /api/auth/password-reset and POST /api/auth/password-reset/confirm.
//   - GET /healthz.
//
// Endpoints behind RequireSession:
//   - POST /api/auth/logout, POST /api/auth/session/refresh, PUT /api/auth/password.
//   - GET /api/attendance returns the current month key.
//   - GET /api/attendance/{month} returns the calendar view for a YYYY-MM month.
//   - POST /api/attendance/{month}/days/{day}/select opens the day editor.
//   - PATCH /api/attendance/{month}/editor applies {"changes":[{"field","value"}]}.
//   - POST /api/attendance/{month}/editor/submit validates and saves the open day.
//   - POST /api/attendance/{month}/editor/close hides the editor without saving.
//   - GET /api/attendance/{month}/report.xlsx downloads the month as a workbook.
//
// Session tokens travel in the session_token cookie or an Authorization
// Bearer header. User-facing messages are in Hebrew.
package http
