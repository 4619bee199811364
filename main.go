// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/quickly-decide/cliparse"
	"github.com/danielhkuo/quickly-decide/db"
	"github.com/danielhkuo/quickly-decide/expiry"
	"github.com/danielhkuo/quickly-decide/handlers"
	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/mongostore"
	"github.com/danielhkuo/quickly-decide/router"
)

const shutdownTimeout = 30 * time.Second

// backend is a poll store that also serves the user and restaurant directory.
type backend interface {
	lifecycle.Store
	lifecycle.Directory
	handlers.DirectoryStore
}

func main() {
	// A missing .env is fine; anything else is worth knowing about
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logOpts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	var logger *slog.Logger
	if cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}
	slog.SetDefault(logger)

	ctx := context.Background()

	store, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("database setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("Database ready", "type", cfg.DatabaseType)

	lc := lifecycle.New(store, store)

	// Countdowns live in memory; pick up the ones that were running
	sched := expiry.NewScheduler(lc, cfg.TickInterval)
	defer sched.Close()
	if err := sched.Resume(ctx, lc); err != nil {
		slog.Error("resuming poll countdowns failed", "error", err)
		os.Exit(1)
	}

	mux := router.NewRouter(router.Deps{
		Lifecycle: lc,
		Directory: store,
		Scheduler: sched,
		Config:    cfg,
	})

	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// signal.Notify requires the channel to be buffered
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("Server closed")
}

// openBackend connects the configured database and returns a func that
// releases it.
func openBackend(ctx context.Context, cfg cliparse.Config) (backend, func(), error) {
	if cfg.DatabaseType == cliparse.DatabaseMongo {
		store, err := mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(ctx); err != nil {
				slog.Error("mongo disconnect failed", "error", err)
			}
		}, nil
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(conn, dialect), func() { conn.Close() }, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
