package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires handlers and guards into the API router.
type RouterConfig struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Sessions   SessionValidator
	AuthState  AuthStateReader
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API router. Route groups whose handler is nil are not mounted.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	resp := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, RequestLogger(logger), middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: localizedStatusMessage(http.StatusMethodNotAllowed)})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req.Context()); err != nil {
				resp.writeError(req.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		resp.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireSession := func(next http.Handler) http.Handler { return next }
	if cfg.Sessions != nil {
		requireSession = RequireSession(cfg.Sessions, logger)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Route("/auth", func(auth chi.Router) {
				auth.Group(func(public chi.Router) {
					public.Use(RedirectIfAuthenticated(cfg.AuthState, logger))
					public.Post("/signup", cfg.Auth.SignUp)
					public.Post("/login", cfg.Auth.Login)
					public.Post("/login/federated", cfg.Auth.LoginFederated)
				})

				auth.Get("/session", cfg.Auth.Session)
				auth.Post("/password-reset", cfg.Auth.RequestPasswordReset)
				auth.Post("/password-reset/confirm", cfg.Auth.ConfirmPasswordReset)

				auth.Group(func(private chi.Router) {
					private.Use(requireSession)
					private.Post("/logout", cfg.Auth.Logout)
					private.Post("/session/refresh", cfg.Auth.RefreshSession)
					private.Put("/password", cfg.Auth.UpdatePassword)
				})
			})
		}

		if cfg.Attendance != nil {
			api.Route("/attendance", func(att chi.Router) {
				att.Use(requireSession)
				att.Get("/", cfg.Attendance.Current)
				att.Route("/{month}", func(m chi.Router) {
					m.Get("/", cfg.Attendance.Month)
					m.Post("/days/{day}/select", cfg.Attendance.SelectDay)
					m.Patch("/editor", cfg.Attendance.EditFields)
					m.Post("/editor/submit", cfg.Attendance.SubmitDay)
					m.Post("/editor/close", cfg.Attendance.CloseEditor)
					m.Get("/report.xlsx", cfg.Attendance.Report)
				})
			})
		}
	})

	return r
}
