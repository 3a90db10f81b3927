package record

import (
	"context"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/remote"
)

// Repository provides persistence for data table rows.
type Repository interface {
	List(ctx context.Context, table string, opts ListOptions) ([]Record, error)
	Get(ctx context.Context, table, id string) (Record, error)
	Create(ctx context.Context, table string, rec Record) (Record, error)
	Put(ctx context.Context, table, id string, rec Record) (Record, error)
	Update(ctx context.Context, table, id string, patch Record) (Record, error)
	Delete(ctx context.Context, table, id string) (Record, error)
}

// BlobRepository stores uploaded file contents.
type BlobRepository interface {
	PutBlob(ctx context.Context, blob *Blob) error
	GetBlob(ctx context.Context, fileID string) (*Blob, error)
}

// ActivityLogger records entries in the shared activity feed.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Activity) error
}

// Publisher fans row changes out to realtime subscribers.
type Publisher interface {
	Publish(change remote.Change)
}
