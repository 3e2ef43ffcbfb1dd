// Package main provides the development REST backend for oceanboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/config"
	"github.com/raphaelgruber/oceanboard/internal/db"
	"github.com/raphaelgruber/oceanboard/internal/server"
)

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "delete the database file on startup (testing only)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Initialize logging
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel, "devserver")
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting oceanboard-devserver", "port", cfg.DevServerPort, "db", cfg.DevServerDB)

	if *wipeDB && cfg.DevServerDB != ":memory:" {
		if err := os.Remove(cfg.DevServerDB); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := db.Open(ctx, cfg.DevServerDB, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	srv := server.New(server.Config{
		Store:    store,
		Tokens:   server.NewTokenIssuer(cfg.JWTSecret, server.DefaultTokenTTL),
		Seed:     cfg.Seed,
		FailRate: cfg.DevServerFailRate,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.DevServerPort,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second, // uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.DevServerPort))
		if cfg.DevServerFailRate > 0 {
			logger.Warn("failure injection enabled", "rate", cfg.DevServerFailRate)
		}

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
