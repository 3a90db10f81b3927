package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/mcp"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		httpAddr    string
		accessToken string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the signed-in session to agents over MCP",
		Long: "Signs in to the API like the terminal client and exposes the session as MCP tools.\n" +
			"Speaks stdio by default; --http serves the streamable HTTP transport instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				accessToken = os.Getenv("SYNCTEAM_MCP_TOKEN")
			}
			return runMCP(a, httpAddr, accessToken)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "bearer token required by the HTTP transport")
	return cmd
}

func runMCP(a *app, httpAddr, accessToken string) error {
	// Stdout carries JSON-RPC in stdio mode.
	logger := a.logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, user, err := signIn(ctx, a.cfg.Client, logger)
	if err != nil {
		return err
	}

	notifier := mutate.NotifierFunc(func(t mutate.Toast) {
		if t.Level == activity.LevelError {
			logger.Warn("mutation", "message", t.Message)
			return
		}
		logger.Debug("mutation", "level", t.Level, "message", t.Message)
	})
	l := newClientLoop(backend, user, a.cfg.Client.PageSize, notifier, logger, nil)
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("loop stopped", "error", err)
		}
	}()

	ready := make(chan struct{})
	go func() {
		if err := hydrateLoop(ctx, l, backend, user, logger); err != nil {
			logger.Error("initial load failed", "error", err)
		}
		close(ready)
	}()

	server := mcp.NewServer(mcp.Config{
		Loop:    l,
		Ready:   ready,
		Version: version,
		Logger:  logger,
	})

	if httpAddr == "" {
		logger.Info("starting stdio transport")
		if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	router := http.NewServeMux()
	handler := mcp.NewHTTPHandler(server, accessToken, logger)
	router.Handle("/mcp", handler)
	router.Handle("/mcp/", handler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return listenUntilDone(ctx, logger, &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})
}
