package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rpggio/syncteam/internal/changefeed"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/domain/session"
	"github.com/rpggio/syncteam/internal/sqlite"
	"github.com/rpggio/syncteam/internal/transport"
	"github.com/spf13/cobra"
)

const sessionPruneInterval = time.Hour

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			return runServe(a)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "bind address")
	cmd.Flags().IntVar(&port, "port", 0, "listen port")
	return cmd
}

func runServe(a *app) error {
	cfg := a.cfg
	logger := a.logger(os.Stdout)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	documentRepo := sqlite.NewDocumentRepository(db)
	blobRepo := sqlite.NewBlobRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	hub := changefeed.NewHub(logger)
	defer hub.Close()
	activitySvc := activity.NewService(activityRepo, logger)
	recordSvc := record.NewService(documentRepo, blobRepo, activitySvc, hub, logger)
	sessionSvc := session.NewService(userRepo, sessionRepo, documentRepo, logger, cfg.Server.SessionTTL)

	router := transport.NewServer(transport.Deps{
		Records:  recordSvc,
		Auth:     sessionSvc,
		Activity: activitySvc,
		Feed:     hub,
		DB:       db,
		Logger:   logger,
		Limits:   transport.Limits{Requests: cfg.Server.RateLimit, Window: cfg.Server.RateWindow},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go pruneSessions(ctx, sessionSvc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listenUntilDone(ctx, logger, server)
}

func pruneSessions(ctx context.Context, sessions *session.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.Prune(ctx); err != nil {
				logger.Warn("session prune failed", "error", err)
			}
		}
	}
}

// listenUntilDone serves until ctx is cancelled, then shuts down gracefully.
func listenUntilDone(ctx context.Context, logger *slog.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
