// Package attachment describes files attached to projects and tasks. Only the
// metadata record lives here; file contents are held by the backend.
package attachment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/syncteam/internal/domain/comment"
)

// MaxSize caps a single upload.
const MaxSize = 10 << 20

var (
	// ErrFileNotFound indicates the file doesn't exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidInput indicates invalid file metadata.
	ErrInvalidInput = errors.New("invalid file input")
)

// File is the metadata record for an uploaded attachment
type File struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	MIMEType   string             `json:"mime_type"`
	Size       int64              `json:"size"`
	URL        string             `json:"url"`
	UploadedAt time.Time          `json:"uploaded_at"`
	EntityType comment.EntityType `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
}

// Validate checks file metadata before upload.
func Validate(f File) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if f.EntityID == "" {
		return fmt.Errorf("%w: entity id is required", ErrInvalidInput)
	}
	if f.Size < 0 || f.Size > MaxSize {
		return fmt.Errorf("%w: size %d out of range", ErrInvalidInput, f.Size)
	}
	return nil
}
