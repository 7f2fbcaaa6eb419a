package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/monthly-attendance/internal/config"
	httptransport "github.com/example/monthly-attendance/internal/http"
	"github.com/example/monthly-attendance/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDevServer()
	if err != nil {
		logging.New(os.Stdout, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	server, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("failed to build dev server", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown dev server", "error", err)
		}
	}()

	logger.Info("dev server listening", "addr", server.Addr, "static_dir", cfg.StaticDir, "api_origin", cfg.APIOrigin)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("dev server encountered error", "error", err)
		os.Exit(1)
	}
}

func newServer(cfg config.DevServerConfig, logger *slog.Logger) (*http.Server, error) {
	handler, err := httptransport.NewDevServer(httptransport.DevServerConfig{
		StaticDir: cfg.StaticDir,
		APIOrigin: cfg.APIOrigin,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
