package comment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCommentNotFound indicates the comment doesn't exist.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidInput indicates invalid comment input.
	ErrInvalidInput = errors.New("invalid comment input")
)

// EntityType names the kind of entity a comment or file is attached to.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
	EntityClient  EntityType = "client"
)

// Comment is a remark on a project, task or client. The target is a
// reference, not ownership: deleting the target leaves the comment orphaned.
type Comment struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	AuthorID   string     `json:"author_id"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Patch is a partial comment update. Only realtime merges use it.
type Patch struct {
	Text *string
}

// Apply merges the patch and reports whether anything changed.
func (c *Comment) Apply(pt Patch) bool {
	if pt.Text == nil || *pt.Text == c.Text {
		return false
	}
	c.Text = *pt.Text
	return true
}

// On reports whether the comment targets the given entity.
func (c Comment) On(kind EntityType, id string) bool {
	return c.EntityType == kind && c.EntityID == id
}

// Validate checks a new comment.
func Validate(c Comment) error {
	switch c.EntityType {
	case EntityProject, EntityTask, EntityClient:
	default:
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, c.EntityType)
	}
	if c.EntityID == "" {
		return fmt.Errorf("%w: entity id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	return nil
}
