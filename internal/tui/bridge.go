package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/view"
)

// Bridge forwards loop callbacks into a running program. The engine and loop
// are built before the program exists, so Attach is called afterwards;
// messages sent before that are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives messages.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// Toast implements mutate.Notifier.
func (b *Bridge) Toast(t mutate.Toast) {
	b.send(toastMsg(t))
}

// Changed is a loop change callback. It runs on the loop goroutine.
func (b *Bridge) Changed(dirty []view.Kind) {
	b.send(changedMsg{kinds: dirty})
}

// send never blocks the caller; Program.Send waits for the event loop.
func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(msg)
}
