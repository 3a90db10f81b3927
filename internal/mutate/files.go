package mutate

import (
	"context"
	"io"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

// AttachFile uploads a file and records it against a project or task. The
// record shows immediately with a tentative id and an empty URL.
func (e *Engine) AttachFile(kind comment.EntityType, entityID, name, mimeType string, size int64, body io.Reader) (*Pending, error) {
	const op = "upload file"
	key := "file:" + string(kind) + ":" + entityID
	s := e.store
	f := attachment.File{
		Name:       name,
		MIMEType:   mimeType,
		Size:       size,
		EntityType: kind,
		EntityID:   entityID,
	}
	if err := e.begin(key, op, perm.EditTask, func() error { return attachment.Validate(f) }); err != nil {
		return nil, err
	}
	f.ID = e.newID()
	f.UploadedAt = s.Now()
	tentative := f.ID
	s.UpsertFile(f)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Upload(ctx, remote.FileUpload{
				Name:       name,
				MIMEType:   mimeType,
				EntityType: string(kind),
				EntityID:   entityID,
				Body:       io.LimitReader(body, attachment.MaxSize+1),
			})
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeFile(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			s.RekeyFile(tentative, confirmed)
			return activity.Activity{
				Kind: activity.KindUploaded, EntityType: string(kind), EntityID: entityID,
				Summary: "Uploaded " + confirmed.Name,
			}, "File uploaded", nil
		},
		rollback: func() { s.RemoveFile(tentative) },
	}), nil
}
