// Package loop runs the single goroutine that owns the entity store.
//
// Every read and write of store state happens inside Run: realtime events,
// settled mutations and actions posted by the presentation layer are
// serialised through one select. Remote calls run on their own goroutines
// and post their results back.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/realtime"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// ErrStopped is returned when the loop is no longer running.
var ErrStopped = errors.New("loop stopped")

// Loop serialises access to a store.
type Loop struct {
	store      *store.Store
	engine     *mutate.Engine
	reconciler *realtime.Reconciler
	source     realtime.Source
	logger     *slog.Logger
	onChange   func([]view.Kind)
	actions    chan func()
	done       chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithSource subscribes the loop to realtime events.
func WithSource(src realtime.Source) Option {
	return func(l *Loop) { l.source = src }
}

// WithOnChange registers a callback run on the loop goroutine after any step
// that dirtied mounted views.
func WithOnChange(fn func(dirty []view.Kind)) Option {
	return func(l *Loop) { l.onChange = fn }
}

// New creates a loop around the engine's store.
func New(engine *mutate.Engine, reconciler *realtime.Reconciler, logger *slog.Logger, opts ...Option) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		store:      engine.Store(),
		engine:     engine,
		reconciler: reconciler,
		logger:     logger,
		actions:    make(chan func(), 64),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes events and actions until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var events <-chan realtime.Event
	if l.source != nil {
		ch, err := l.source.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		events = ch
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				l.logger.Info("realtime feed closed")
				events = nil
				continue
			}
			out := l.reconciler.Apply(ev)
			if out.Err != nil {
				l.logger.Debug("realtime event not applied", "table", out.Table, "type", out.Type, "id", out.ID, "error", out.Err)
			}
		case fn := <-l.actions:
			l.safely(fn)
		}
		l.flush()
	}
}

func (l *Loop) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("action panicked", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) flush() {
	if l.onChange == nil {
		return
	}
	if dirty := l.store.TakeDirty(); len(dirty) > 0 {
		l.onChange(dirty)
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// drops fn once the loop has stopped.
func (l *Loop) Post(fn func(*store.Store)) {
	select {
	case l.actions <- func() { fn(l.store) }:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for its result. ctx bounds the wait for
// a queue slot, and fn is skipped if ctx is done by the time the loop
// reaches it. Once queued, Do waits for the outcome.
func (l *Loop) Do(ctx context.Context, fn func(*store.Store) error) error {
	result := make(chan error, 1)
	action := func() {
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		result <- fn(l.store)
	}
	select {
	case l.actions <- action:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrStopped
	}
}

// Submit performs the remote half of p on a new goroutine and settles it on
// the loop. The returned channel receives the settle error.
func (l *Loop) Submit(ctx context.Context, p *mutate.Pending) <-chan error {
	out := make(chan error, 1)
	go func() {
		res := p.Call(ctx)
		select {
		case l.actions <- func() { out <- l.engine.Settle(p, res) }:
		case <-l.done:
			out <- ErrStopped
		}
	}()
	return out
}

// Mutate prepares a mutation on the loop, runs it and waits for settlement.
// Preparation failures (permission, validation, in flight) return at once.
func (l *Loop) Mutate(ctx context.Context, prepare func(*mutate.Engine) (*mutate.Pending, error)) error {
	var p *mutate.Pending
	err := l.Do(ctx, func(*store.Store) error {
		var err error
		p, err = prepare(l.engine)
		return err
	})
	if err != nil {
		return err
	}
	select {
	case err := <-l.Submit(ctx, p):
		return err
	case <-l.done:
		return ErrStopped
	}
}
