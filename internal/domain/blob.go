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
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// ResultArchiver ships run artifacts (trade logs, metrics tables) to cold
// storage and returns the object path written.
type ResultArchiver interface {
	ArchiveTradeLog(ctx context.Context, runID string, records []TradeRecord) (string, error)
	ArchiveMetrics(ctx context.Context, runID string, metrics []StrategyMetrics) (string, error)
}
