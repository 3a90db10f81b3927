// Package remote is the boundary to the backend. Rows cross it in the
// backend's snake_case shape; the codec in this package is the only place
// that shape is translated to and from the domain types.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rpggio/syncteam/internal/domain/team"
)

// Tables the backend serves.
const (
	TableProjects = "projects"
	TableTasks    = "tasks"
	TableSubtasks = "subtasks"
	TableClients  = "clients"
	TableProfiles = "profiles"
	TableComments = "comments"
	TableFiles    = "files"
)

// Tables lists every data table.
var Tables = []string{TableProjects, TableTasks, TableSubtasks, TableClients, TableProfiles, TableComments, TableFiles}

// Row is one record in its wire shape.
type Row map[string]any

// Filter narrows a Select. Eq matches columns exactly.
type Filter struct {
	Eq    map[string]string
	Order string
	Desc  bool
	Limit int
}

// Session is an authenticated backend session.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      team.Member `json:"-"`
}

// FileUpload is a binary attachment on its way to storage.
type FileUpload struct {
	Name       string
	MIMEType   string
	EntityType string
	EntityID   string
	Body       io.Reader
}

// ChangeType tags a change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is a row-level change pushed by the backend.
type Change struct {
	Table string     `json:"table"`
	Type  ChangeType `json:"type"`
	New   Row        `json:"new,omitempty"`
	Old   Row        `json:"old,omitempty"`
	At    time.Time  `json:"at"`
}

// Backend is the remote data capability the client core depends on.
type Backend interface {
	Select(ctx context.Context, table string, f Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table, id string, patch Row) (Row, error)
	Delete(ctx context.Context, table, id string) error
	Authenticate(ctx context.Context, email, password string) (Session, error)
	Upload(ctx context.Context, f FileUpload) (Row, error)
	Subscribe(ctx context.Context) (<-chan Change, error)
}

var (
	// ErrUnauthorized is returned when the backend rejects the credentials or token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the backend has no such row.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller lacks permission.
	ErrForbidden = errors.New("forbidden")
)

// StatusError is a non-2xx response carrying the backend's error message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
