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

	"expense-ledger/internal/auth"
	"expense-ledger/internal/config"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/ledger"
	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer db.Close()

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return err
	}
	authn := auth.NewAuthenticator(db, hasher)
	sessions := auth.NewSessionManager(db, cfg.SessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedAdmin(ctx, db, authn, cfg, logger); err != nil {
		return err
	}

	h := handlers.NewHandlers(authn, sessions, ledger.NewService(db), logger, cfg.SecureCookie)

	srv := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        setupRouter(h, cfg.StaticDir, logger),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go cleanSessions(ctx, sessions, cfg.SessionCleanupInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string, logger *slog.Logger) http.Handler {
	return handlers.LogRequests(logger, h.Routes(staticDir))
}

// seedAdmin creates the configured account when no user exists yet.
func seedAdmin(ctx context.Context, db *storage.DB, authn *auth.Authenticator, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminUser == "" {
		return nil
	}
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := authn.Register(ctx, cfg.AdminEmail, cfg.AdminUser, cfg.AdminPassword)
	if err != nil && !errors.Is(err, models.ErrDuplicateUsername) {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if user != nil {
		logger.Info("Seeded admin user", "user_id", user.ID, "username", user.Username)
	}
	return nil
}

func cleanSessions(ctx context.Context, sessions *auth.SessionManager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := sessions.CleanExpired(ctx)
			if err != nil {
				logger.Error("Failed to clean expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("Cleaned expired sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
