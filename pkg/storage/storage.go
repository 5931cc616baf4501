// Package storage keeps conversion outputs on disk, grouped by batch.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown file IDs.
var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored output.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	BatchID     uuid.UUID `json:"batch_id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"` // document the output was converted from
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the batch directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage persists converted ledgers.
type Storage interface {
	Save(ctx context.Context, batchID uuid.UUID, name, source, contentType string, r io.Reader) (*FileInfo, error)
	Open(ctx context.Context, batchID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)
	List(ctx context.Context, batchID uuid.UUID) ([]*FileInfo, error)
	Delete(ctx context.Context, batchID, fileID uuid.UUID) error
}
