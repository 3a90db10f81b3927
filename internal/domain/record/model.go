package record

import (
	"fmt"
	"slices"

	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

// Record is one row of a data table in its JSON wire shape. The id and the
// timestamps belong to the store and are ignored on input.
type Record map[string]any

var reserved = []string{"id", "created_at", "updated_at"}

// ID returns the record id as a string.
func (r Record) ID() string {
	return remote.Row(r).ID()
}

// Row converts the record for the codec.
func (r Record) Row() remote.Row {
	return remote.Row(r)
}

func (r Record) has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r Record) str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// without returns a copy of r minus the reserved keys.
func (r Record) without() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if slices.Contains(reserved, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Known reports whether table is served by the data API.
func Known(table string) bool {
	return slices.Contains(remote.Tables, table)
}

// Caller identifies the authenticated user behind a request.
type Caller struct {
	UserID string
	Role   perm.Role
}

// Upload is a file on its way into storage.
type Upload struct {
	Name       string
	MIMEType   string
	EntityType string
	EntityID   string
	Content    []byte
}

// Blob is the stored content of an uploaded file.
type Blob struct {
	FileID   string
	MIMEType string
	Content  []byte
}
