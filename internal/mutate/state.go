package mutate

import "github.com/rpggio/syncteam/internal/domain/activity"

// State is the lifecycle position of one mutation.
type State int

const (
	Idle State = iota
	Submitting
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Toast is a transient user-facing message.
type Toast struct {
	Level   activity.Level
	Message string
}

// Notifier displays toasts.
type Notifier interface {
	Toast(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

// Toast calls f.
func (f NotifierFunc) Toast(t Toast) { f(t) }
