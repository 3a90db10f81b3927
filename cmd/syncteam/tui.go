package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpggio/syncteam/internal/cache"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/tui"
	"github.com/rpggio/syncteam/internal/view"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	var (
		page      string
		exportDir string
		simulate  bool
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if simulate {
				a.cfg.Client.Simulate = true
			}
			return runTUI(cmd.Context(), a, page, exportDir)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page to open (dashboard, projects, tasks, team, clients, activity)")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory CSV exports are written to")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "generate demo team activity")
	return cmd
}

func runTUI(ctx context.Context, a *app, page, exportDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg.Client
	// The terminal owns stdout; logs only go to a configured file.
	logger := a.logger(io.Discard)

	backend, user, err := signIn(ctx, cfg, logger)
	if err != nil {
		return err
	}

	prefs, err := cache.Open(cfg.CachePath, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer prefs.Close()
	theme, _ := prefs.Theme(ctx)
	if page == "" {
		page, _ = prefs.LastPage(ctx)
	}

	bridge := &tui.Bridge{}
	l := newClientLoop(backend, user, cfg.PageSize, bridge, logger, func(s *store.Store) func([]view.Kind) {
		snapshot := prefs.OnChange(s)
		return func(dirty []view.Kind) {
			snapshot(dirty)
			bridge.Changed(dirty)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- l.Run(ctx) }()
	cacheDone := make(chan struct{})
	go func() {
		prefs.Run(ctx)
		close(cacheDone)
	}()

	if snap, ok, err := prefs.LoadSnapshot(ctx); err != nil {
		logger.Warn("cached snapshot unreadable", "error", err)
	} else if ok {
		_ = l.Do(ctx, func(s *store.Store) error {
			s.Restore(snap)
			s.SetCurrentUser(user)
			return nil
		})
	}

	go func() {
		if err := hydrateLoop(ctx, l, backend, user, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("initial load failed", "error", err)
			bridge.Toast(mutate.Toast{Level: activity.LevelError, Message: "Could not load data: " + err.Error()})
		}
	}()
	if cfg.Simulate {
		go realtime.NewSimulator(realtime.DefaultSimulationInterval, uint64(time.Now().UnixNano())).Run(ctx, l)
	}

	m := tui.New(l, tui.Options{
		Prefs:     prefs,
		Theme:     theme,
		Page:      page,
		ExportDir: exportDir,
		Logger:    logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	_, runErr := p.Run()
	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("loop stopped", "error", err)
	}
	<-cacheDone
	if runErr != nil {
		return fmt.Errorf("run terminal client: %w", runErr)
	}
	return nil
}
