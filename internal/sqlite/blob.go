package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/repository"
)

// BlobRepository implements record.BlobRepository for SQLite
type BlobRepository struct {
	db *DB
}

// NewBlobRepository creates a new BlobRepository
func NewBlobRepository(db *DB) *BlobRepository {
	return &BlobRepository{db: db}
}

// PutBlob stores file content, replacing any previous content for the file
func (r *BlobRepository) PutBlob(ctx context.Context, blob *record.Blob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO blobs (file_id, mime_type, content) VALUES (?, ?, ?)`,
		blob.FileID, blob.MIMEType, blob.Content,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to store blob: %w", err)
	}
	return nil
}

// GetBlob retrieves the content of a file
func (r *BlobRepository) GetBlob(ctx context.Context, fileID string) (*record.Blob, error) {
	blob := record.Blob{FileID: fileID}
	err := r.db.QueryRowContext(ctx,
		`SELECT mime_type, content FROM blobs WHERE file_id = ?`, fileID,
	).Scan(&blob.MIMEType, &blob.Content)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return &blob, nil
}
