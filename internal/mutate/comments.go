package mutate

import (
	"context"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

// AddComment posts a comment on a project, task or client.
func (e *Engine) AddComment(kind comment.EntityType, entityID, text string) (*Pending, error) {
	const op = "add comment"
	key := "comment:" + string(kind) + ":" + entityID
	s := e.store
	c := comment.Comment{
		EntityType: kind,
		EntityID:   entityID,
		AuthorID:   s.CurrentUser().ID,
		Text:       strings.TrimSpace(text),
	}
	if err := e.begin(key, op, perm.Comment, func() error { return comment.Validate(c) }); err != nil {
		return nil, err
	}
	c.ID = e.newID()
	c.CreatedAt = s.Now()
	tentative := c.ID
	s.InsertComment(c)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Insert(ctx, remote.TableComments, remote.EncodeComment(c))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeComment(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			if confirmed.CreatedAt.IsZero() {
				confirmed.CreatedAt = c.CreatedAt
			}
			s.RekeyComment(tentative, confirmed)
			return activity.Activity{
				Kind: activity.KindCommented, EntityType: string(kind), EntityID: entityID,
				Summary: "Commented on " + e.entityLabel(kind, entityID),
			}, "Comment added", nil
		},
		rollback: func() { s.RemoveComment(tentative) },
	}), nil
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (e *Engine) DeleteComment(id string) (*Pending, error) {
	const op = "delete comment"
	key := "delete:comment:" + id
	s := e.store
	c, ok := s.Comment(id)
	action := perm.Comment
	if ok && c.AuthorID != s.CurrentUser().ID {
		action = perm.Wildcard
	}
	if err := e.begin(key, op, action, nil); err != nil {
		return nil, err
	}
	removed, ok := s.RemoveComment(id)
	if !ok {
		return nil, e.notFound(op, "comment", id)
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return nil, b.Delete(ctx, remote.TableComments, id)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{}, "Comment deleted", nil
		},
		rollback: func() { s.RestoreComment(removed) },
	}), nil
}

func (e *Engine) entityLabel(kind comment.EntityType, id string) string {
	s := e.store
	switch kind {
	case comment.EntityProject:
		return s.ProjectName(id)
	case comment.EntityTask:
		if t, ok := s.Task(id); ok {
			return t.Title
		}
	case comment.EntityClient:
		if c, ok := s.Client(id); ok {
			return c.Name
		}
	}
	return string(kind) + " " + id
}
