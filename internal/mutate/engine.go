// Package mutate applies local changes optimistically and confirms them
// against the backend, rolling back on failure.
//
// A mutation is prepared on the goroutine that owns the store (capability
// check, validation, local apply), called remotely off that goroutine, and
// settled back on it. Engine.Run does all three inline.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
)

// TentativePrefix marks ids generated locally before the backend confirms.
const TentativePrefix = "tmp-"

// IsTentative reports whether id was generated locally.
func IsTentative(id string) bool {
	return strings.HasPrefix(id, TentativePrefix)
}

// Engine prepares and settles mutations against one store.
type Engine struct {
	store    *store.Store
	backend  remote.Backend
	notifier Notifier
	logger   *slog.Logger
	inflight map[string]bool
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides tentative id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine. A nil notifier discards toasts.
func NewEngine(s *store.Store, backend remote.Backend, notifier Notifier, logger *slog.Logger, opts ...Option) *Engine {
	if notifier == nil {
		notifier = NotifierFunc(func(Toast) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:    s,
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		inflight: make(map[string]bool),
		newID:    func() string { return TentativePrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the engine mutates.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Busy reports whether a mutation for the control key is pending.
func (e *Engine) Busy(key string) bool {
	return e.inflight[key]
}

// Result is the outcome of the remote half of a mutation.
type Result struct {
	Row remote.Row
	Err error
}

// Pending is a mutation that has been applied locally and awaits its remote call.
type Pending struct {
	key      string
	op       string
	state    State
	id       string
	backend  remote.Backend
	call     func(ctx context.Context, b remote.Backend) (remote.Row, error)
	commit   func(row remote.Row) (activity.Activity, string, error)
	rollback func()
}

// Key is the control key guarding duplicate submissions.
func (p *Pending) Key() string { return p.key }

// Op describes the mutation for messages.
func (p *Pending) Op() string { return p.op }

// State returns the lifecycle position.
func (p *Pending) State() State { return p.state }

// ID returns the id of the row the backend confirmed, once committed.
func (p *Pending) ID() string { return p.id }

// Call performs the remote half. It touches no store state and is safe to
// run on any goroutine. A panic in the backend is returned as an error.
func (p *Pending) Call(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("backend panic: %v", r)}
		}
	}()
	row, err := p.call(ctx, p.backend)
	return Result{Row: row, Err: err}
}

// Run performs the remote call and settles inline.
func (e *Engine) Run(ctx context.Context, p *Pending) error {
	return e.Settle(p, p.Call(ctx))
}

// Settle commits or rolls back a pending mutation. Every failure path leaves
// the store as it was before the mutation and shows an error toast.
func (e *Engine) Settle(p *Pending, res Result) error {
	delete(e.inflight, p.key)
	if p.state != Submitting {
		return fmt.Errorf("%s: settled twice", p.op)
	}

	err := res.Err
	var (
		act     activity.Activity
		success string
	)
	if err == nil {
		act, success, err = p.commit(res.Row)
	}
	if err != nil {
		p.rollback()
		p.state = RolledBack
		rerr := &RemoteError{Op: p.op, Err: err}
		e.logger.Warn("mutation rolled back", "op", p.op, "error", err)
		e.notifier.Toast(Toast{Level: activity.LevelError, Message: fmt.Sprintf("Failed to %s: %s", p.op, remoteMessage(err))})
		return rerr
	}

	p.state = Committed
	if res.Row != nil {
		p.id = res.Row.ID()
	}
	if act.Kind != "" {
		e.store.LogActivity(act)
	}
	if success != "" {
		e.notifier.Toast(Toast{Level: activity.LevelSuccess, Message: success})
	}
	e.logger.Debug("mutation committed", "op", p.op)
	return nil
}

func remoteMessage(err error) string {
	var se *remote.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// begin runs the synchronous preconditions shared by every mutation and
// registers the control key. Failures toast and return without touching
// the store.
func (e *Engine) begin(key, op string, action perm.Action, validate func() error) error {
	if e.inflight[key] {
		return fmt.Errorf("%s: %w", op, ErrInFlight)
	}
	role := e.store.CurrentUser().Role
	if action != "" && !perm.Check(role, action) {
		e.notifier.Toast(Toast{Level: activity.LevelWarning, Message: fmt.Sprintf("You don't have permission to %s", op)})
		return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, perm.DeniedError{Role: role, Action: action})
	}
	if validate != nil {
		if err := validate(); err != nil {
			e.notifier.Toast(Toast{Level: activity.LevelWarning, Message: err.Error()})
			return fmt.Errorf("%s: %w", op, validationError(err))
		}
	}
	return nil
}

// notFound logs and reports a target missing from the store.
func (e *Engine) notFound(op, kind, id string) error {
	e.logger.Info("mutation target not in store", "op", op, "kind", kind, "id", id)
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFoundLocally)
}

func (e *Engine) pending(p *Pending) *Pending {
	p.state = Submitting
	p.backend = e.backend
	e.inflight[p.key] = true
	return p
}

func pick[T any](present *T, prev T) *T {
	if present == nil {
		return nil
	}
	return &prev
}
