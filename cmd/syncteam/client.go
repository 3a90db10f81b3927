package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/syncteam/internal/config"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/hydrate"
	"github.com/rpggio/syncteam/internal/loop"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

const signInTimeout = 15 * time.Second

// signIn opens a backend and authenticates it with the configured token or,
// failing that, the configured email and password.
func signIn(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger) (*remote.HTTPBackend, team.Member, error) {
	b, err := remote.NewHTTPBackend(cfg.APIURL, remote.WithLogger(logger), remote.WithToken(cfg.Token))
	if err != nil {
		return nil, team.Member{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, signInTimeout)
	defer cancel()

	var sess remote.Session
	switch {
	case cfg.Token != "":
		sess, err = b.CurrentSession(ctx)
	case cfg.Email != "" && cfg.Password != "":
		sess, err = b.Authenticate(ctx, cfg.Email, cfg.Password)
	default:
		return nil, team.Member{}, errors.New("no credentials: set SYNCTEAM_TOKEN or SYNCTEAM_EMAIL and SYNCTEAM_PASSWORD")
	}
	if err != nil {
		return nil, team.Member{}, fmt.Errorf("sign in: %w", err)
	}
	logger.Info("signed in", "user", sess.User.Email, "role", sess.User.Role)
	return b, sess.User, nil
}

// newClientLoop builds the store, mutation engine and event loop of one
// client session. onChange, when set, builds the loop's change callback
// for the new store.
func newClientLoop(
	b *remote.HTTPBackend,
	user team.Member,
	pageSize int,
	notifier mutate.Notifier,
	logger *slog.Logger,
	onChange func(*store.Store) func([]view.Kind),
) *loop.Loop {
	s := store.New()
	s.SetCurrentUser(user)
	for _, kind := range view.Tabular {
		s.Page(kind).PageSize = pageSize
	}
	engine := mutate.NewEngine(s, b, notifier, logger)
	opts := []loop.Option{loop.WithSource(b)}
	if onChange != nil {
		opts = append(opts, loop.WithOnChange(onChange(s)))
	}
	return loop.New(engine, realtime.NewReconciler(s, logger), logger, opts...)
}

// hydrateLoop fetches every collection and replaces the loop's store with it.
func hydrateLoop(ctx context.Context, l *loop.Loop, b remote.Backend, user team.Member, logger *slog.Logger) error {
	ds, err := hydrate.Fetch(ctx, b, logger)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	return l.Do(ctx, func(s *store.Store) error {
		if dropped := ds.Apply(s); dropped > 0 {
			logger.Warn("dropped subtasks without a task", "count", dropped)
		}
		if me, ok := s.Member(user.ID); ok {
			user = me
		}
		s.SetCurrentUser(user)
		logger.Info("hydrated",
			"projects", len(ds.Projects),
			"tasks", len(ds.Tasks),
			"clients", len(ds.Clients),
			"skipped", ds.Skipped,
		)
		return nil
	})
}
