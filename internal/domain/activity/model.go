package activity

import (
	"errors"
	"time"
)

// ErrInvalidInput indicates an activity entry that cannot be logged.
var ErrInvalidInput = errors.New("invalid activity input")

// Kind represents the type of activity event
type Kind string

const (
	KindCreated       Kind = "created"
	KindUpdated       Kind = "updated"
	KindDeleted       Kind = "deleted"
	KindStatusChanged Kind = "status_changed"
	KindAssigned      Kind = "assigned"
	KindCommented     Kind = "commented"
	KindUploaded      Kind = "uploaded"
	KindTimer         Kind = "timer"
	KindSimulated     Kind = "simulated"
)

// Activity is one entry in the activity feed
type Activity struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// Level is the severity of a notification or toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a user-facing message with a read flag
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	EntityType string
	EntityID   string
	Limit      int
}
