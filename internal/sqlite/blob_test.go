package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestBlobRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepository(db)
	repo := NewBlobRepository(db)

	file, err := docs.Create(ctx, "files", record.Record{"name": "a.txt", "entity_type": "task", "entity_id": "1"})
	require.NoError(t, err)

	require.NoError(t, repo.PutBlob(ctx, &record.Blob{FileID: file.ID(), MIMEType: "text/plain", Content: []byte("hello")}))
	blob, err := repo.GetBlob(ctx, file.ID())
	require.NoError(t, err)
	require.Equal(t, "text/plain", blob.MIMEType)
	require.Equal(t, []byte("hello"), blob.Content)

	err = repo.PutBlob(ctx, &record.Blob{FileID: "99", Content: []byte("x")})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	_, err = docs.Delete(ctx, "files", file.ID())
	require.NoError(t, err)
	_, err = repo.GetBlob(ctx, file.ID())
	require.ErrorIs(t, err, repository.ErrNotFound, "content goes with its files row")
}
