package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/jotter/internal/config"
	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/logging"
	"github.com/dukerupert/jotter/internal/server"
	"github.com/dukerupert/jotter/internal/session"
	"github.com/dukerupert/jotter/internal/store"
)

const (
	sweepInterval   = time.Hour
	migrateInterval = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Connect(database.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		slog.Error("failed to configure database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, closeSessions, err := newSessionStore(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to set up sessions", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	srv, err := server.New(db, sessions, server.Config{
		SecureCookies:  cfg.CookieSecure,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustProxy:     cfg.TrustProxy,
	}, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	// An unreachable database is not fatal: serve anyway and keep trying.
	if err := db.Migrate(ctx); err != nil {
		slog.Error("database unavailable, will retry", "driver", cfg.DBDriver, "error", err)
		srv.SetReady(false)
		go retryMigrate(ctx, db, srv)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(ctx); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if n := srv.RateLimiter().Sweep(); n > 0 {
					slog.Debug("swept rate limit buckets", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("jotter starting", "addr", ":"+cfg.Port, "env", cfg.Env, "db", cfg.DBDriver, "sessions", cfg.SessionBackend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newSessionStore(ctx context.Context, cfg config.Config, db *database.DB) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
	case config.SessionMemory:
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	default:
		return store.NewSessionStore(db, cfg.SessionTTL), func() {}, nil
	}
}

func retryMigrate(ctx context.Context, db *database.DB, srv *server.Server) {
	ticker := time.NewTicker(migrateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := db.Migrate(ctx); err != nil {
				slog.Warn("database still unavailable", "error", err)
				continue
			}
			slog.Info("database ready")
			srv.SetReady(true)
			return
		case <-ctx.Done():
			return
		}
	}
}
