package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/config"
	httptransport "github.com/example/monthly-attendance/internal/http"
	"github.com/example/monthly-attendance/internal/identity"
	"github.com/example/monthly-attendance/internal/logging"
	"github.com/example/monthly-attendance/internal/persistence/sqlite"
	"github.com/example/monthly-attendance/internal/persistence/sqlite/migration"
)

func main() {
	bootstrap := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	storage, err := sqlite.OpenWithConfig(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	handler, err := newHandler(storage, cfg, time.Now, logger)
	if err != nil {
		logger.Error("failed to build HTTP handler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("attendance API listening", "addr", server.Addr, "federated_sign_in", cfg.GoogleClientID != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newHandler wires storage, the identity provider and the application
// services into the API router.
func newHandler(storage *sqlite.Storage, cfg config.Config, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	var verifier identity.TokenVerifier
	if cfg.GoogleClientID != "" {
		verifier = identity.GoogleVerifier{ClientID: cfg.GoogleClientID}
	}

	provider, err := identity.NewProvider(storage.Users, verifier, identity.LogNotifier{Logger: logger}, identity.Config{
		ResetSecret:   []byte(cfg.ResetSecret),
		ResetTokenTTL: cfg.ResetTokenTTL,
		ResetURL:      cfg.ResetURL,
		Now:           now,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	tokenGenerator := func() string { return randomHex(32) }
	authService := application.NewAuthServiceWithLogger(provider, newSessionRepositoryAdapter(storage.Sessions), tokenGenerator, now, cfg.SessionTTL, logger)

	attendanceService, err := application.NewAttendanceServiceWithLogger(
		newAttendanceRepositoryAdapter(storage.Attendance),
		cfg.WorkspaceCacheSize,
		cfg.Location,
		now,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("attendance service: %w", err)
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, cfg.SecureCookies, logger),
		Attendance: httptransport.NewAttendanceHandler(attendanceService, logger),
		Sessions:   authService,
		AuthState:  authService,
		Health:     storage.Ping,
		Logger:     logger,
	}), nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
