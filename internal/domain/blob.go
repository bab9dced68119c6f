package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// BlobDeleter removes objects, used by retention cleanup.
type BlobDeleter interface {
	Delete(ctx context.Context, path string) error
}

// Archiver writes order-book snapshots and batch receipts to cold storage.
// Archival is best-effort diagnostics, never on the critical path.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, fetchedAt time.Time, orders []RawOrder) error
	ArchiveResult(ctx context.Context, wallet string, result BatchExecutionResult, items []CartItem) error
}
