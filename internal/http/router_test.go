package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestRouterHealthAndFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("healthz reports ok", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Health: func(context.Context) error { return nil }})
		if rec := serve(router, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("healthz surfaces storage failures", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Health: func(context.Context) error { return errors.New("database is closed") }})
		if rec := serve(router, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("unknown routes answer localized JSON", func(t *testing.T) {
		t.Parallel()

		rec := serve(NewRouter(RouterConfig{}), http.MethodGet, "/api/nothing", "", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.Message != localizedStatusMessage(http.StatusNotFound) {
			t.Fatalf("unexpected message %q", body.Message)
		}
	})
}
