package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/logging"
)

type sessionValidatorStub struct {
	principals map[string]application.Principal
	err        error
}

func (s sessionValidatorStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if s.err != nil {
		return application.Principal{}, s.err
	}
	principal, ok := s.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthorized
	}
	return principal, nil
}

type authStateStub struct {
	state application.AuthState
	err   error
}

func (s authStateStub) CurrentAuthState(context.Context, string) (application.AuthState, error) {
	return s.state, s.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	validator := sessionValidatorStub{principals: map[string]application.Principal{"good": {UserID: "user-1"}}}

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			cookie         *http.Cookie
			header         string
			accept         string
			validator      SessionValidator
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_UNAUTHORIZED",
			},
			{
				name:           "unknown bearer token",
				header:         "Bearer unknown",
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_UNAUTHORIZED",
			},
			{
				name:           "expired session",
				cookie:         &http.Cookie{Name: sessionCookieName, Value: "stale"},
				validator:      sessionValidatorStub{err: application.ErrSessionExpired},
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "page navigation redirects to login",
				accept:         "text/html,application/xhtml+xml",
				expectedStatus: http.StatusSeeOther,
			},
			{
				name:           "validator failure",
				header:         "Bearer good",
				validator:      sessionValidatorStub{err: errors.New("database unavailable")},
				expectedStatus: http.StatusInternalServerError,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookie != nil {
					req.AddCookie(tc.cookie)
				}
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				if tc.accept != "" {
					req.Header.Set("Accept", tc.accept)
				}

				v := tc.validator
				if v == nil {
					v = validator
				}
				handler := RequireSession(v, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))

				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				if rec.Code != tc.expectedStatus {
					t.Fatalf("expected status %d, got %d", tc.expectedStatus, rec.Code)
				}
				if tc.expectedStatus == http.StatusSeeOther {
					if loc := rec.Header().Get("Location"); loc != loginPath {
						t.Fatalf("expected redirect to %s, got %q", loginPath, loc)
					}
					return
				}
				body := decodeError(t, rec)
				if body.Message == "" {
					t.Fatal("expected localized message")
				}
				if tc.expectedCode != "" && body.ErrorCode != tc.expectedCode {
					t.Fatalf("expected error code %s, got %s", tc.expectedCode, body.ErrorCode)
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "good"})

		var called bool
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.UserID != "user-1" {
				t.Fatalf("unexpected principal: %#v (ok=%v)", principal, ok)
			}
			if token := sessionTokenFromContext(r.Context()); token != "good" {
				t.Fatalf("expected session token in context, got %q", token)
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if !called || rec.Code != http.StatusNoContent {
			t.Fatalf("expected downstream handler to run, status %d", rec.Code)
		}
	})
}

func TestRedirectIfAuthenticated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		reader     AuthStateReader
		redirected bool
	}{
		{name: "anonymous caller passes", reader: authStateStub{}},
		{name: "signed-out token passes", token: "old", reader: authStateStub{}},
		{name: "lookup failure passes", token: "tok", reader: authStateStub{err: errors.New("boom")}},
		{name: "signed-in caller is sent home", token: "tok", reader: authStateStub{state: application.AuthState{LoggedIn: true}}, redirected: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}

			var reached bool
			handler := RedirectIfAuthenticated(tc.reader, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tc.redirected {
				if reached || rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != homePath {
					t.Fatalf("expected 303 to %s, got %d %q", homePath, rec.Code, rec.Header().Get("Location"))
				}
				return
			}
			if !reached {
				t.Fatalf("expected request to pass through, got %d", rec.Code)
			}
		})
	}
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.FromContext(r.Context()) == nil {
			t.Fatal("expected request logger in context")
		}
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
