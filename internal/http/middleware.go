package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/logging"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

// SessionValidator resolves a session token to its principal.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// AuthStateReader reports who, if anyone, holds a session token.
type AuthStateReader interface {
	CurrentAuthState(ctx context.Context, token string) (application.AuthState, error)
}

// RequireSession admits only requests carrying an active session. Page
// navigations without one are redirected to the login page; API calls get 401.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := handlerLogger(ctx, logger, "RequireSession", "")

			token := extractTokenFromRequest(r)
			if token == "" {
				log.DebugContext(ctx, "request without session token")
				rejectUnauthenticated(w, r, responder, errorResponse{ErrorCode: "AUTH_UNAUTHORIZED", Message: errMissingSessionToken.Error()})
				return
			}

			principal, err := validator.ValidateSession(ctx, token)
			if err != nil {
				status, body := errorPayload(err)
				if !isUnauthenticated(err) {
					log.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", application.ErrorKind(err))
					responder.writeJSON(ctx, w, status, body)
					return
				}
				log.InfoContext(ctx, "session rejected", "error_kind", application.ErrorKind(err))
				if status != http.StatusUnauthorized {
					body = errorResponse{ErrorCode: "AUTH_UNAUTHORIZED", Message: errMissingSessionToken.Error()}
				}
				rejectUnauthenticated(w, r, responder, body)
				return
			}

			ctx = ContextWithPrincipal(ctx, principal)
			ctx = contextWithSessionToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated keeps signed-in users away from the public-only
// pages and endpoints by sending them home.
func RedirectIfAuthenticated(reader AuthStateReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" || reader == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			state, err := reader.CurrentAuthState(ctx, token)
			if err != nil {
				handlerLogger(ctx, logger, "RedirectIfAuthenticated", "").
					WarnContext(ctx, "could not resolve auth state", "error", err, "error_kind", application.ErrorKind(err))
				next.ServeHTTP(w, r)
				return
			}
			if state.LoggedIn {
				http.Redirect(w, r, homePath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, application.ErrUnauthorized) ||
		errors.Is(err, application.ErrInvalidCredentials) ||
		errors.Is(err, application.ErrSessionExpired) ||
		errors.Is(err, application.ErrSessionRevoked) ||
		errors.Is(err, application.ErrNotFound)
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request, responder responder, body errorResponse) {
	if wantsHTML(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	responder.writeJSON(r.Context(), w, http.StatusUnauthorized, body)
}

// wantsHTML reports whether the request is a browser page navigation.
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// RequestLogger attaches a request-scoped logger to the context and logs
// the start and completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var requestID any = middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = counter.Add(1)
			}
			logger := base.With(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
