package interfaces

import (
	"context"
	"io"
)

// StorageClient reads and writes objects of one bucket.
type StorageClient interface {
	PutObject(ctx context.Context, object string) io.WriteCloser
	GetObject(ctx context.Context, object string) (io.ReadCloser, error)
	Close(ctx context.Context)
}
