// Package realtime merges pushed change events into the entity store.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rpggio/syncteam/internal/remote"
)

// Event is a row-level change, as delivered by the backend.
type Event = remote.Change

// Event types.
const (
	Insert = remote.ChangeInsert
	Update = remote.ChangeUpdate
	Delete = remote.ChangeDelete
)

var (
	// ErrNotFoundLocally marks an update for an entity that is not hydrated yet.
	ErrNotFoundLocally = errors.New("entity not found locally")
	// ErrReconciliationConflict marks an event that cannot be placed, such as
	// a subtask whose owning task is gone.
	ErrReconciliationConflict = errors.New("reconciliation conflict")
	// ErrUnknownTable marks an event for a table the client does not track.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownType marks an event with an unrecognised type.
	ErrUnknownType = errors.New("unknown event type")
)

// Source is anything that delivers change events: a push subscription, a
// poll loop or a test harness. The channel closes when the source ends.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// ChanSource is a Source fed by hand.
type ChanSource struct {
	ch   chan Event
	once sync.Once
}

// NewChanSource creates a source with the given buffer.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Event, buffer)}
}

// Subscribe returns the event channel.
func (c *ChanSource) Subscribe(context.Context) (<-chan Event, error) {
	return c.ch, nil
}

// Send delivers ev, blocking while the buffer is full.
func (c *ChanSource) Send(ev Event) {
	c.ch <- ev
}

// Close ends the stream.
func (c *ChanSource) Close() {
	c.once.Do(func() { close(c.ch) })
}
