package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DevServerConfig configures the local development front end server.
type DevServerConfig struct {
	StaticDir string
	APIOrigin string
	Logger    *slog.Logger
}

// NewDevServer serves StaticDir and forwards /api/* to APIOrigin. Unknown
// paths without a file extension fall back to index.html so client-side
// routes such as /login survive a reload.
func NewDevServer(cfg DevServerConfig) (http.Handler, error) {
	logger := defaultLogger(cfg.Logger)

	proxy, err := NewAPIProxy(cfg.APIOrigin, logger)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("static directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static directory: %s is not a directory", cfg.StaticDir)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, RequestLogger(logger), middleware.Recoverer)
	r.Handle("/api/*", proxy)
	r.Handle("/*", spaHandler(cfg.StaticDir))
	return r, nil
}

// NewAPIProxy returns a reverse proxy to origin. Upstream failures answer 502 JSON.
func NewAPIProxy(origin string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return nil, fmt.Errorf("parse API origin: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("API origin must be an absolute URL")
	}

	resp := newResponder(logger)
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		handlerLogger(r.Context(), logger, "APIProxy", "forward", "target", target.String()).
			ErrorContext(r.Context(), "upstream request failed", "error", err)
		resp.writeJSON(r.Context(), w, http.StatusBadGateway, errorResponse{Message: localizedStatusMessage(http.StatusBadGateway)})
	}
	return proxy, nil
}

func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err != nil && path.Ext(clean) == "" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
